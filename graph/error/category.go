package grapherror

// Category represents the main error category for dependency graph
// construction, simulation and metric estimation.
type Category string

const (
	// CategoryConstruction indicates the dependency graph could not be built
	CategoryConstruction Category = "construction"

	// CategorySimulation indicates an internal invariant broke during simulation
	CategorySimulation Category = "simulation"

	// CategoryThrottling indicates an invalid throttling profile
	CategoryThrottling Category = "throttling"

	// CategoryMetric indicates a metric could not be estimated from its inputs
	CategoryMetric Category = "metric"
)

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// Construction Subcategories
const (
	// SubcategoryMainResourceNotFound indicates no record matched the main document
	SubcategoryMainResourceNotFound = "main_resource_not_found"

	// SubcategoryCycle indicates the dependency relation contains a cycle
	SubcategoryCycle = "cycle"

	// SubcategoryRootExcluded indicates a clone predicate dropped the root node
	SubcategoryRootExcluded = "root_excluded"
)

// Simulation Subcategories
const (
	// SubcategoryUnstartableNode indicates ready nodes exist but none could start
	SubcategoryUnstartableNode = "unstartable_node"

	// SubcategoryDepthExceeded indicates the event loop did not terminate
	SubcategoryDepthExceeded = "depth_exceeded"

	// SubcategoryUnreachedNodes indicates nodes were left pending after the loop
	SubcategoryUnreachedNodes = "unreached_nodes"
)

// Throttling Subcategories
const (
	SubcategoryRTT           = "rtt"
	SubcategoryThroughput    = "throughput"
	SubcategoryCPUMultiplier = "cpu_multiplier"
)

// Metric Subcategories
const (
	// SubcategoryMissingInput indicates a required boundary or dependency is absent
	SubcategoryMissingInput = "missing_input"

	// SubcategoryUnknownMetric indicates a metric kind with no implementation
	SubcategoryUnknownMetric = "unknown_metric"
)

// Standard attribute keys for training, evaluation and prediction records.
// Keys follow a dotted hierarchy ("data.samples", "metrics.r2_score") so
// records can be filtered by prefix.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator or component producing the record.
	// Examples: "GradientDescent", "Regression", "MinMaxScaler"
	ModelNameKey = "model.name"

	// RunIDKey correlates every record of one CLI invocation.
	RunIDKey = "run.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score", "normalize"
	OperationKey = "ml.operation"

	// ModeKey records the orchestration mode selected from the menu.
	ModeKey = "app.mode"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// PathKey records the file a component read from or wrote to.
	PathKey = "data.path"
)

// Training and Evaluation
const (
	DurationMsKey   = "perf.duration_ms"
	LossKey         = "metrics.loss"
	R2ScoreKey      = "metrics.r2_score"
	IterationKey    = "training.iteration"
	IterationsKey   = "training.iterations"
	LearningRateKey = "hyperparams.learning_rate"
	Theta0Key       = "params.theta0"
	Theta1Key       = "params.theta1"
	MileageKey      = "input.mileage"
	PriceKey        = "output.price"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationScore     = "score"
	OperationNormalize = "normalize"
)

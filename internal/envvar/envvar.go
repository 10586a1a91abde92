package envvar

const (
	// TabserveEnv is the environment variable used to determine the environment
	TabserveEnv = "TABSERVE_ENV"

	// TabserveServerHTTPPort is the environment variable used to determine the HTTP port
	TabserveServerHTTPPort = "TABSERVE_SERVER_HTTP_PORT"

	// TabserveServerGRPCPort is the environment variable used to determine the gRPC port
	TabserveServerGRPCPort = "TABSERVE_SERVER_GRPC_PORT"

	// TabserveLogLevel is the environment variable used to override the log level
	TabserveLogLevel = "TABSERVE_LOG_LEVEL"

	// ModelDir is the environment variable holding the directory of the model artifact.
	// The name follows the SageMaker container convention.
	ModelDir = "SM_MODEL_DIR"
)

package config

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN  = "PROCUREFLOW_DB_DSN"
	EnvDBHost = "PROCUREFLOW_DB_HOST"
	EnvDBUser = "PROCUREFLOW_DB_USER"
	EnvDBName = "PROCUREFLOW_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

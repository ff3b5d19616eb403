package config

const (
	EnvPrefix = "EASYBUY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "EASYBUY_APP_ENV"
	EnvPort     = "EASYBUY_APP_PORT"
	EnvLogLevel = "EASYBUY_LOG_LEVEL"

	EnvDBDSN  = "EASYBUY_DB_DSN"
	EnvDBHost = "EASYBUY_DB_HOST"
	EnvDBUser = "EASYBUY_DB_USER"
	EnvDBName = "EASYBUY_DB_NAME"

	EnvRedisURL     = "EASYBUY_REDIS_URL"
	EnvGCPProjectID = "EASYBUY_GCP_PROJECT_ID"

	EnvPubSubSalesSub        = "EASYBUY_PUBSUB_SALES_SUBSCRIPTION"
	EnvPubSubNotificationSub = "EASYBUY_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvPickupTimezone          = "EASYBUY_PICKUP_TIMEZONE"
	EnvPickupAutoCancelGrace   = "EASYBUY_PICKUP_AUTO_CANCEL_GRACE"
	EnvPickupReminderLookahead = "EASYBUY_PICKUP_REMINDER_LOOKAHEAD"
	EnvPickupSlots             = "EASYBUY_PICKUP_SLOTS"

	EnvSalesDebtTermDays = "EASYBUY_SALES_DEBT_TERM_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

package enums

const (
	DB_DRIVER_POSTGRES = "postgres"
	DB_DRIVER_MYSQL    = "mysql"
	DB_DRIVER_SQLITE   = "sqlite"
)

const (
	FILE_BUCKET_WHITEBOARD_EXPORTS = "whiteboard-exports"
)

// Package constants vends constants used in various components of the map service, e.g., env var names
package constants

const (
	// -------------- env vars --------------
	// common
	EnvVerbose = "MAPWEB_VERBOSE"
	// server
	EnvAppHost            = "MAPWEB_HOST"
	EnvAppPort            = "PORT"
	EnvStaticDir          = "MAPWEB_STATIC_DIR"
	EnvReqBodySizeMaxByte = "MAPWEB_REQ_BODY_SIZE_MAX_BYTE"
	EnvSessionSecret      = "SESSION_SECRET"
	// stores
	EnvMongoURI       = "MONGODB_URI"
	EnvMongoDatabase  = "MONGODB_DATABASE"
	EnvGridFSBucket   = "GRIDFS_BUCKET"
	EnvMapGLBFilename = "MAP_GLB_FILENAME"
	// discord
	EnvDiscordGuildID      = "DISCORD_GUILD_ID"
	EnvDiscordBotToken     = "DISCORD_BOT_TOKEN"
	EnvDiscordClientID     = "DISCORD_CLIENT_ID"
	EnvDiscordClientSecret = "DISCORD_CLIENT_SECRET"
	EnvDiscordCallbackURL  = "DISCORD_CALLBACK_URL"
	EnvRoleIDAdmin         = "ADMIN_ROLE_ID"
	EnvRoleIDModerator     = "MODERATOR_ROLE_ID"
	EnvRoleIDWriter        = "WRITER_ROLE_ID"
	EnvRoleIDReader        = "READER_ROLE_ID"

	// -------------- log fields --------------
	LogFieldFuncName = "funcName"
)

// Package config loads the vstate CLI configuration.
//
// The configuration is stored in vstate.json. Every field can be
// overridden by a VSTATE_* environment variable, and a .env file in the
// working directory is loaded first when present.
//
// # Configuration File Structure
//
//	{
//	  "storage": {
//	    "backend": "sqlite",
//	    "path": "state.db",
//	    "codec": "json",
//	    "timeout": "10s"
//	  },
//	  "http": {
//	    "addr": "localhost:7070"
//	  },
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  }
//	}
//
// # Environment
//
//	VSTATE_STORAGE_BACKEND  VSTATE_STORAGE_DIR  VSTATE_STORAGE_PATH
//	VSTATE_STORAGE_CODEC    VSTATE_STORAGE_TIMEOUT
//	VSTATE_S3_BUCKET        VSTATE_S3_PREFIX    VSTATE_S3_REGION
//	VSTATE_S3_ENDPOINT
//	VSTATE_HTTP_ADDR        VSTATE_LOG_LEVEL    VSTATE_LOG_FORMAT
package config

// Package config loads the dbu command configuration.
//
// Configuration comes from an optional YAML document followed by
// environment variable overrides:
//
//	cfg, err := config.Load(ctx, "s3://ops/dbu/prod.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	h, err := dbunified.New(
//	    dbunified.WithConfig(cfg.Mapping()),
//	    dbunified.WithLogger(cfg.NewLogger(os.Stderr)),
//	    dbunified.WithProbe(cfg.Prober()),
//	)
//
// # Document
//
//	database:
//	  type: postgresql
//	  name: shop
//	  addr: db1.internal
//	  port: 5432
//	  user: app
//	  passwd: secret
//	  sslmode: require
//	log:
//	  level: info
//	  format: json
//	probe:
//	  enabled: true
//	  timeout: 3s
//
// The database section is handed to the resolver unchanged, so it accepts
// the same keys (type, name, addr, port, user, passwd, sslmode, options,
// ssl_ca, ssl_key, ssl_cert, ssl_verify_cert).
//
// # Sources
//
// The document path may be a local path, file://, http(s):// (read only)
// or s3://bucket/key. S3 access uses the default AWS credential chain,
// optionally overridden by DBU_S3_REGION, DBU_S3_ENDPOINT,
// DBU_S3_ACCESS_KEY and DBU_S3_SECRET_KEY.
//
// # Environment Variables
//
//	DBU_TYPE, DBU_NAME, DBU_ADDR, DBU_PORT   - database section overrides
//	DBU_USER, DBU_PASSWD, DBU_SSLMODE        - database section overrides
//	DBU_OPTIONS, DBU_SSL_CA, DBU_SSL_KEY     - database section overrides
//	DBU_SSL_CERT, DBU_SSL_VERIFY_CERT        - database section overrides
//	DBU_LOG_LEVEL     - debug, info, warn or error (default: info)
//	DBU_LOG_FORMAT    - json or text (default: json)
//	DBU_PROBE_ENABLED - probe the server port before connecting (default: false)
//	DBU_PROBE_TIMEOUT - probe dial timeout (default: 3s)
package config

/*
Package config holds the run configuration for httpsfix.

	+-------------+     +-------------+     +-------------+
	|  Defaults   | --> | Environment | --> |    Flags    |
	| (envDefault)|     | (HTTPSFIX_*)|     |   (cobra)   |
	+-------------+     +-------------+     +------+------+
	                                               |
	                                        +------+------+
	                                        |  Validate   |
	                                        +-------------+

🎯 Purpose:
- Provides explicit defaults instead of hardcoded paths
- Reads overrides from environment variables
- Validates values before any file is touched

🔄 Flow:
1. Load parses HTTPSFIX_* variables on top of the defaults
2. The command binds its flags to the loaded values
3. Validate runs once all overrides are applied

| Variable                 | Flag              | Default              |
|--------------------------|-------------------|----------------------|
| HTTPSFIX_ROOT            | --root, [root]    | webgoat/JavaSource   |
| HTTPSFIX_EXTENSION       | --ext             | .java                |
| HTTPSFIX_EXCLUDE         | --exclude         |                      |
| HTTPSFIX_ENCODING        | --encoding        | utf-8                |
| HTTPSFIX_FORMAT          | --format          | text                 |
| HTTPSFIX_DRY_RUN         | --dry-run         | false                |
| HTTPSFIX_FAIL_ON_ERROR   | --fail-on-error   | false                |
| HTTPSFIX_DEBUG           | --debug           | false                |

There is no configuration file.

🔍 Example:

	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	cfg.Root = "src/main/java"
	if err := cfg.Validate(); err != nil {
		return err
	}
*/
package config

// Package config loads and watches the graphtrust configuration file.
//
// Top-level types:
//   - Config{Oracle, Scoring, Watch} — full config tree parsed from YAML
//   - OracleConfig — base_url, timeout, auth, tls
//   - AuthConfig — mode (mtls|apikey|bearer|basic|none), cert/key/ca
//     files, header, key_env, token_env, password_env; Key(), Token()
//     and Password() resolve secrets from environment variables
//   - trust.Config — distance_weights, path_bonus (scalar or per-hop
//     mapping), max_path_bonus
//   - WatchConfig — interval, source, targets for watch mode
//
// Load(path) reads the YAML file, applies defaults (10s timeout, 30s
// watch interval), then validates required fields, auth mode enums, and
// identity-shaped watch keys.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and
// calls onChange with the newly parsed Config. Event bursts from
// atomic-save editors are debounced into one reload, and the watch is
// re-added afterwards in case the save replaced the inode.
package config

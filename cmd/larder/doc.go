// Command larder is the backup daemon and its operator CLI. `larder run`
// starts the long-running loop; the remaining subcommands inspect and
// maintain an existing destination root.
package main

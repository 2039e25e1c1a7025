package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

type options struct {
	email          string
	password       string
	language       string
	logoutOnExit   bool
	restartOnError bool
}

// envFlags are flags that override the environment variable of the same setting
var envFlags = []struct {
	name, env, usage string
}{
	{"api-url", "API_URL", "backend REST API root"},
	{"socket-url", "SOCKET_URL", "socket.io server (defaults to the API URL without /api)"},
	{"platform", "PLATFORM", "device class: web, android, ios or desktop"},
	{"storage", "STORAGE_BACKEND", "session storage: file or redis"},
	{"data-folder", "DATA_FOLDER", "folder of the file storage"},
	{"redis-addr", "REDIS_ADDR", "redis address for the redis storage"},
	{"log-level", "LOG_LEVEL", "zerolog level"},
}

func parseFlags(args []string) options {
	fs := flag.NewFlagSet("guardd", flag.ExitOnError)
	var opts options
	fs.StringVar(&opts.email, "email", "", "sign in with this email when no session is stored")
	fs.StringVar(&opts.password, "password", os.Getenv("GUARD_PASSWORD"), "password for --email")
	fs.StringVar(&opts.language, "language", "", "switch the app language (en or es)")
	fs.BoolVar(&opts.logoutOnExit, "logout-on-exit", false, "end the session when stopping")
	fs.BoolVar(&opts.restartOnError, "restart", false, "restart after an error instead of exiting")

	values := make(map[string]*string, len(envFlags))
	for _, f := range envFlags {
		values[f.name] = fs.String(f.name, "", f.usage+" ($"+f.env+")")
	}
	_ = fs.Parse(args)

	for _, f := range envFlags {
		if fs.Changed(f.name) {
			_ = os.Setenv(f.env, *values[f.name])
		}
	}
	return opts
}

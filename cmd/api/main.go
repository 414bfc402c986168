package main

import (
	"fmt"
	"io"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/PauloHFS/gothpress/internal/cmd"
	"github.com/PauloHFS/gothpress/web/static/assets"
)

// A tabela alimenta o dispatch e o help, então os dois não descolam.
var commands = []struct {
	name string
	help string
	run  func()
}{
	{"server", "Start the web server (default)", func() { cmd.RunServer(assets.FS) }},
	{"migrate", "Run database migrations", cmd.RunMigrate},
	{"seed", "Run migrations and seed the database", cmd.RunSeed},
	{"create-user", "Create a new user (args: <name> <email> <password> [role])", cmd.RunCreateUser},
	{"jobs", "Inspect the dead letter queue (list, stats, retry <id>, drop <id>, prune)", cmd.RunJobs},
}

func main() {
	name := "server"
	if len(os.Args) > 1 {
		name = os.Args[1]
	}

	switch name {
	case "help", "-h", "--help":
		showHelp(os.Stdout)
		return
	}

	for _, c := range commands {
		if c.name == name {
			c.run()
			return
		}
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
	showHelp(os.Stderr)
	os.Exit(1)
}

func showHelp(w io.Writer) {
	fmt.Fprintln(w, "GOTHPress - Single Binary Console")
	fmt.Fprintln(w, "Usage: ./gothpress [command] [args]")
	fmt.Fprintln(w, "\nAvailable commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", c.name, c.help)
	}
	fmt.Fprintf(w, "  %-12s %s\n", "help", "Show this help message")
}

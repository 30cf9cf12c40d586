package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// Build details injected at link time.
var (
	GitCommit string
	GitTag    string
	BuildTime string
)

// errServe tells main that no command flag was given and the api must be served.
var errServe = errors.New("serve")

func main() {
	err := runCommand(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}
	if !errors.Is(err, errServe) {
		log.Fatal("command failed: ", err)
	}

	app, err := NewApp()
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	if err = app.Run(); err != nil {
		log.Fatal("application exited. check logs for more details.", err)
	}
}

// runCommand handles the one-shot flags. It returns errServe when none was set.
func runCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("books-api", flag.ContinueOnError)
	fs.SetOutput(out)
	version := fs.Bool("version", false, "print build details and exit")
	reset := fs.String("reset", "", "replace the json document at this path with an empty books list and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *version:
		fmt.Fprintf(out, "tag: %s\ncommit: %s\nbuilt: %s\n", GitTag, GitCommit, BuildTime)
		return nil
	case *reset != "":
		if err := ResetDatabase(*reset, Document{Books: []Book{}}); err != nil {
			return err
		}
		fmt.Fprintf(out, "books document reset at %s\n", *reset)
		return nil
	}
	return errServe
}

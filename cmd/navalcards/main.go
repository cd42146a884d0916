/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"navalcards/internal/crash"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit status:
// 0 on success, 1 on failure and 2 on bad usage.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	name := args[0]
	switch name {
	case "-v", "--version":
		name = "version"
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		_, _ = fmt.Fprintln(stderr, errStyle.Render("unknown command: "+name))
		usage(stderr)
		return 2
	}

	a, err := newApp(ctx, stdout, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, errStyle.Render("Error:"), err)
		return 1
	}
	defer a.close()
	defer crash.Recover(crash.Options{Dir: a.crashDir(), Source: a})
	if name != "version" {
		a.startTelemetry()
	}

	a.log.Debug("start", slog.String("cmd", name), slog.Int("args", len(args)-1))
	err = cmd.run(a, args[1:])
	switch {
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintf(stderr, "usage: navalcards %s %s\n", name, cmd.args)
		return 2
	case err != nil:
		a.log.Error("command failed", slog.String("cmd", name), slog.Any("err", err))
		_, _ = fmt.Fprintln(stderr, errStyle.Render("Error:"), err)
		return 1
	}
	return 0
}

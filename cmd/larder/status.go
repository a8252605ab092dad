package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarn
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func printStatus(out io.Writer, kind statusKind, message string) {
	if shouldColorize(out) {
		if color := statusKindColor(kind); color != "" {
			fmt.Fprintln(out, color+message+ansiReset)
			return
		}
	}
	fmt.Fprintln(out, message)
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusSuccess:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

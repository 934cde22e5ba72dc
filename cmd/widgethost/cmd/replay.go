package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/go-drift/widgethost/pkg/reactive"
	"go.uber.org/zap"
)

func init() {
	RegisterCommand(&Command{
		Name:  "replay",
		Short: "Replay reactive output messages against a page",
		Long: `Load an HTML page with an in-process reactive session, bind its outputs,
and apply a file of messages, one JSON object per line:

  {"values": {"plot1": {"x": {...}}}, "errors": {"plot2": {"message": "..."}}}

Blank lines and lines starting with # are skipped. The resulting document
is written after the last message.`,
		Usage: "widgethost replay <page.html> <messages.jsonl> [-o FILE] [--location URL] [--settle DURATION]",
		Run:   runReplay,
	})
}

func runReplay(args []string) error {
	positional, flags, err := parsePageFlags(args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return fmt.Errorf("page and messages are required\n\nUsage: widgethost replay <page.html> <messages.jsonl>")
	}

	p, err := loadPage(positional[0], flags)
	if err != nil {
		return err
	}
	defer p.logger.Sync()

	session := reactive.NewSession(p.doc,
		reactive.WithSessionLogger(p.logger),
		reactive.WithDependencyResolver(p.deps))
	p.doc.SetGlobal(reactive.GlobalName, session)
	if err := p.attach(); err != nil {
		return err
	}
	if err := p.ready(); err != nil {
		return err
	}
	ids, err := session.BindAll(nil)
	if err != nil {
		return err
	}
	p.logger.Info("bound outputs", zap.Strings("ids", ids))

	f, err := os.Open(positional[1])
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		msg := bytes.TrimSpace(scanner.Bytes())
		if len(msg) == 0 || msg[0] == '#' {
			continue
		}
		if err := session.Apply(msg); err != nil {
			return fmt.Errorf("%s:%d: %w", positional[1], line, err)
		}
		p.loop.RunPending()
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	p.settle(flags.settle)
	return p.write(flags.output)
}

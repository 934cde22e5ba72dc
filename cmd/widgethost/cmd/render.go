package cmd

import "fmt"

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Bind widgets and write the resulting HTML",
		Long: `Load an HTML page, bind every widget placeholder to its registered
renderer, and write the resulting document.

Renderers are enabled in widgethost.yaml (default: canvasXpress). The loop
keeps running for the settle time so scheduled passes complete.

Usage:
  widgethost render page.html                 # Write to stdout
  widgethost render page.html -o out.html     # Write to a file`,
		Usage: "widgethost render <page.html> [-o FILE] [--location URL] [--settle DURATION]",
		Run:   runRender,
	})
}

func runRender(args []string) error {
	positional, flags, err := parsePageFlags(args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("page is required\n\nUsage: widgethost render <page.html>")
	}

	p, err := loadPage(positional[0], flags)
	if err != nil {
		return err
	}
	defer p.logger.Sync()

	if err := p.attach(); err != nil {
		return err
	}
	if err := p.ready(); err != nil {
		return err
	}
	p.settle(flags.settle)
	return p.write(flags.output)
}

package cmd

import (
	"fmt"

	"github.com/go-drift/widgethost/pkg/payload"
	"github.com/go-drift/widgethost/pkg/sizing"
	"github.com/go-drift/widgethost/pkg/widget"
)

func init() {
	RegisterCommand(&Command{
		Name:  "inspect",
		Short: "List widget placeholders",
		Long: `List the widget placeholders of an HTML page without rendering them.

For each element found by an enabled renderer this shows whether it is a
static widget or a reactive output, and whether its sizing policy and
payload sidecars are present.`,
		Usage: "widgethost inspect <page.html>",
		Run:   runInspect,
	})
}

func runInspect(args []string) error {
	positional, flags, err := parsePageFlags(args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("page is required\n\nUsage: widgethost inspect <page.html>")
	}

	p, err := loadPage(positional[0], flags)
	if err != nil {
		return err
	}
	defer p.logger.Sync()
	if err := p.attach(); err != nil {
		return err
	}

	fmt.Printf("Page: %s (%s, %dx%d)\n", positional[0], p.cfg.Variant, p.cfg.Viewport.Width, p.cfg.Viewport.Height)
	fmt.Println()

	total := 0
	for _, def := range p.host.Registry().Definitions() {
		found, err := def.Find(p.doc.Root())
		if err != nil {
			return fmt.Errorf("%s: %w", def.Name, err)
		}
		fmt.Printf("%s (%d)\n", def.Name, len(found))
		for _, el := range found {
			kind := "static"
			if el.HasClass(widget.ClassOutput) {
				kind = "output"
			}
			_, hasSizing := p.doc.Sidecar(el.ID(), sizing.MIMEType)
			_, hasPayload := p.doc.Sidecar(el.ID(), payload.MIMEType)
			fmt.Printf("  %-24s %-7s sizing=%-5t payload=%t\n", el, kind, hasSizing, hasPayload)
			total++
		}
	}
	fmt.Println()
	fmt.Printf("%d widget element(s)\n", total)
	return nil
}

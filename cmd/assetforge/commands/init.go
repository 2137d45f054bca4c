package commands

import (
	"fmt"
	"os"

	ferrors "assetforge/internal/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing application map file"`
}

const starterMap = `# AssetForge application map.
# Output names on the left, source entry points on the right.
source: app/src
target: public

entries:
  app.js:
    source: main.js
    external: []
    format: iife
  style.css: css/site.css
  index.html: index.html
  assets/:
    - images/
    - fonts/
`

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	fmt.Printf("Writing application map to %s\n", root.Config)
	if !i.Force {
		if _, err := os.Stat(root.Config); err == nil {
			return ferrors.Config("application map already exists (use --force to overwrite)").WithContext("path", root.Config)
		}
	}
	if err := os.WriteFile(root.Config, []byte(starterMap), 0o644); err != nil {
		return fmt.Errorf("write application map: %w", err)
	}
	fmt.Println("initialized successfully")
	return nil
}

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"image_to_pdf/internal/converter"
)

// pageEdits are the --drop, --move, --up and --down flags, applied in that order.
type pageEdits struct {
	drop []string
	move []string // name:page, page is 1-based
	up   []string
	down []string
}

func (e pageEdits) empty() bool {
	return len(e.drop)+len(e.move)+len(e.up)+len(e.down) == 0
}

// applyEdits rearranges the session's images. Images are named by file base name;
// when two files share a name the first one is used.
func applyEdits(session *converter.Session, e pageEdits) error {
	for _, name := range e.drop {
		id, err := findImage(session, name)
		if err != nil {
			return err
		}
		if err := session.Remove(id); err != nil {
			return err
		}
	}

	for _, spec := range e.move {
		sep := strings.LastIndex(spec, ":")
		if sep <= 0 {
			return fmt.Errorf("invalid --move %q: want name:page", spec)
		}
		page, err := strconv.Atoi(spec[sep+1:])
		if err != nil || page < 1 {
			return fmt.Errorf("invalid --move %q: page must be a number from 1", spec)
		}
		id, err := findImage(session, spec[:sep])
		if err != nil {
			return err
		}
		if err := session.Move(id, page-1); err != nil {
			return err
		}
	}

	for _, name := range e.up {
		id, err := findImage(session, name)
		if err != nil {
			return err
		}
		if err := session.MoveUp(id); err != nil {
			return err
		}
	}

	for _, name := range e.down {
		id, err := findImage(session, name)
		if err != nil {
			return err
		}
		if err := session.MoveDown(id); err != nil {
			return err
		}
	}
	return nil
}

func findImage(session *converter.Session, name string) (string, error) {
	for _, img := range session.Images() {
		if img.Filename == name {
			return img.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", converter.ErrUnknownImage, name)
}

package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/mask"
)

// Source records where a sample came from.
type Source struct {
	Path string
	Side string
}

func (s Source) String() string {
	if s.Side == "" {
		return s.Path
	}
	return s.Path + "#" + s.Side
}

// Group is one dataset stored under a prefix. The slices are positionally
// aligned: entry i of each describes sample i.
type Group struct {
	Prefix  string
	Height  int
	Width   int
	IDs     []string
	Images  []*imaging.Raster
	Labels  []*mask.LabelMask
	Segs    [][][]int
	Sources []Source
}

// Len returns the number of samples in the group.
func (g *Group) Len() int { return len(g.Images) }

// Validate checks alignment and that every image and label shares the group
// size.
func (g *Group) Validate() error {
	if !ValidPrefix(g.Prefix) {
		return fmt.Errorf("unknown group prefix %q", g.Prefix)
	}
	n := len(g.Images)
	if len(g.Labels) != n || len(g.Segs) != n || len(g.Sources) != n {
		return fmt.Errorf("group %q: %d images, %d labels, %d segs, %d sources",
			g.Prefix, n, len(g.Labels), len(g.Segs), len(g.Sources))
	}
	if len(g.IDs) != 0 && len(g.IDs) != n {
		return fmt.Errorf("group %q: %d ids for %d samples", g.Prefix, len(g.IDs), n)
	}
	for i := range n {
		img, lbl := g.Images[i], g.Labels[i]
		if img.Width != g.Width || img.Height != g.Height {
			return fmt.Errorf("group %q: image %d is %dx%d, want %dx%d", g.Prefix, i, img.Width, img.Height, g.Width, g.Height)
		}
		if lbl.Width != g.Width || lbl.Height != g.Height {
			return fmt.Errorf("group %q: label %d is %dx%d, want %dx%d", g.Prefix, i, lbl.Width, lbl.Height, g.Width, g.Height)
		}
		if img.Channels != g.Images[0].Channels {
			return fmt.Errorf("group %q: image %d has %d channels, want %d", g.Prefix, i, img.Channels, g.Images[0].Channels)
		}
	}
	return nil
}

// WriteGroup stores g in a single transaction. Samples without an id get a
// fresh one.
func (a *Archive) WriteGroup(ctx context.Context, g *Group) error {
	if err := g.Validate(); err != nil {
		return err
	}
	channels := 1
	if g.Len() > 0 {
		channels = g.Images[0].Channels
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write %q: %w", g.Prefix, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO archive_groups (group_prefix, sample_count, height, width, channels)
		VALUES (?, ?, ?, ?, ?)`, g.Prefix, g.Len(), g.Height, g.Width, channels); err != nil {
		return fmt.Errorf("insert group %q: %w", g.Prefix, err)
	}

	for i := range g.Len() {
		id := uuid.NewString()
		if len(g.IDs) > 0 {
			id = g.IDs[i]
		}
		if err := insertSample(ctx, tx, g, i, id); err != nil {
			return fmt.Errorf("group %q sample %d: %w", g.Prefix, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit group %q: %w", g.Prefix, err)
	}
	return nil
}

func insertSample(ctx context.Context, tx *sql.Tx, g *Group, i int, id string) error {
	img, lbl := g.Images[i], g.Labels[i]

	pix, err := compress(img.Pix)
	if err != nil {
		return fmt.Errorf("compress image: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO images (group_prefix, idx, sample_id, height, width, channels, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, g.Prefix, i, id, img.Height, img.Width, img.Channels, pix); err != nil {
		return fmt.Errorf("insert image: %w", err)
	}

	classes, err := compress(lbl.Data)
	if err != nil {
		return fmt.Errorf("compress labels: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO labels (group_prefix, idx, height, width, data)
		VALUES (?, ?, ?, ?, ?)`, g.Prefix, i, lbl.Height, lbl.Width, classes); err != nil {
		return fmt.Errorf("insert labels: %w", err)
	}

	raw, rows, cols, err := encodeSegs(g.Segs[i])
	if err != nil {
		return err
	}
	segs, err := compress(raw)
	if err != nil {
		return fmt.Errorf("compress segs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO segs (group_prefix, idx, num_rows, num_cols, data)
		VALUES (?, ?, ?, ?, ?)`, g.Prefix, i, rows, cols, segs); err != nil {
		return fmt.Errorf("insert segs: %w", err)
	}

	src := g.Sources[i]
	if _, err := tx.ExecContext(ctx, `INSERT INTO images_source (group_prefix, idx, path, side)
		VALUES (?, ?, ?, ?)`, g.Prefix, i, src.Path, src.Side); err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	return nil
}

// GroupInfo summarises a stored group.
type GroupInfo struct {
	Prefix   string
	Count    int
	Height   int
	Width    int
	Channels int
}

// Groups lists the stored groups ordered by prefix.
func (a *Archive) Groups() ([]GroupInfo, error) {
	rows, err := a.db.Query(`SELECT group_prefix, sample_count, height, width, channels
		FROM archive_groups ORDER BY group_prefix`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var out []GroupInfo
	for rows.Next() {
		var gi GroupInfo
		if err := rows.Scan(&gi.Prefix, &gi.Count, &gi.Height, &gi.Width, &gi.Channels); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, gi)
	}
	return out, rows.Err()
}

// ErrNoGroup is returned when reading a prefix the archive does not hold.
var ErrNoGroup = errors.New("group not found")

func (a *Archive) checkGroup(prefix string) error {
	var n int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM archive_groups WHERE group_prefix = ?`, prefix).Scan(&n)
	if err != nil {
		return fmt.Errorf("query group %q: %w", prefix, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNoGroup, prefix)
	}
	return nil
}

// Images returns the images stored under prefix in sample order.
func (a *Archive) Images(prefix string) ([]*imaging.Raster, error) {
	if err := a.checkGroup(prefix); err != nil {
		return nil, err
	}
	rows, err := a.db.Query(`SELECT height, width, channels, data FROM images
		WHERE group_prefix = ? ORDER BY idx`, prefix)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	var out []*imaging.Raster
	for rows.Next() {
		var h, w, c int
		var blob []byte
		if err := rows.Scan(&h, &w, &c, &blob); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		pix, err := decompress(blob)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", len(out), err)
		}
		if len(pix) != h*w*c {
			return nil, fmt.Errorf("image %d: %d bytes for %dx%dx%d", len(out), len(pix), w, h, c)
		}
		out = append(out, &imaging.Raster{Width: w, Height: h, Channels: c, Pix: pix})
	}
	return out, rows.Err()
}

// Labels returns the class masks stored under prefix in sample order.
func (a *Archive) Labels(prefix string) ([]*mask.LabelMask, error) {
	if err := a.checkGroup(prefix); err != nil {
		return nil, err
	}
	rows, err := a.db.Query(`SELECT height, width, data FROM labels
		WHERE group_prefix = ? ORDER BY idx`, prefix)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer rows.Close()

	var out []*mask.LabelMask
	for rows.Next() {
		var h, w int
		var blob []byte
		if err := rows.Scan(&h, &w, &blob); err != nil {
			return nil, fmt.Errorf("scan labels: %w", err)
		}
		data, err := decompress(blob)
		if err != nil {
			return nil, fmt.Errorf("labels %d: %w", len(out), err)
		}
		if len(data) != h*w {
			return nil, fmt.Errorf("labels %d: %d bytes for %dx%d", len(out), len(data), w, h)
		}
		out = append(out, &mask.LabelMask{Width: w, Height: h, Data: data})
	}
	return out, rows.Err()
}

// Segs returns the boundary rows stored under prefix in sample order.
func (a *Archive) Segs(prefix string) ([][][]int, error) {
	if err := a.checkGroup(prefix); err != nil {
		return nil, err
	}
	rows, err := a.db.Query(`SELECT num_rows, num_cols, data FROM segs
		WHERE group_prefix = ? ORDER BY idx`, prefix)
	if err != nil {
		return nil, fmt.Errorf("query segs: %w", err)
	}
	defer rows.Close()

	var out [][][]int
	for rows.Next() {
		var r, c int
		var blob []byte
		if err := rows.Scan(&r, &c, &blob); err != nil {
			return nil, fmt.Errorf("scan segs: %w", err)
		}
		raw, err := decompress(blob)
		if err != nil {
			return nil, fmt.Errorf("segs %d: %w", len(out), err)
		}
		segs, err := decodeSegs(raw, r, c)
		if err != nil {
			return nil, fmt.Errorf("segs %d: %w", len(out), err)
		}
		out = append(out, segs)
	}
	return out, rows.Err()
}

// Sources returns the source records stored under prefix in sample order.
func (a *Archive) Sources(prefix string) ([]Source, error) {
	if err := a.checkGroup(prefix); err != nil {
		return nil, err
	}
	rows, err := a.db.Query(`SELECT path, side FROM images_source
		WHERE group_prefix = ? ORDER BY idx`, prefix)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.Path, &s.Side); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SampleIDs returns the sample ids stored under prefix in sample order.
func (a *Archive) SampleIDs(prefix string) ([]string, error) {
	if err := a.checkGroup(prefix); err != nil {
		return nil, err
	}
	rows, err := a.db.Query(`SELECT sample_id FROM images WHERE group_prefix = ? ORDER BY idx`, prefix)
	if err != nil {
		return nil, fmt.Errorf("query sample ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan sample id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ReadGroup loads every array stored under prefix.
func (a *Archive) ReadGroup(prefix string) (*Group, error) {
	g := &Group{Prefix: prefix}
	var err error
	if g.Images, err = a.Images(prefix); err != nil {
		return nil, err
	}
	if g.Labels, err = a.Labels(prefix); err != nil {
		return nil, err
	}
	if g.Segs, err = a.Segs(prefix); err != nil {
		return nil, err
	}
	if g.Sources, err = a.Sources(prefix); err != nil {
		return nil, err
	}
	if g.IDs, err = a.SampleIDs(prefix); err != nil {
		return nil, err
	}
	err = a.db.QueryRow(`SELECT height, width FROM archive_groups WHERE group_prefix = ?`, prefix).Scan(&g.Height, &g.Width)
	if err != nil {
		return nil, fmt.Errorf("query group %q: %w", prefix, err)
	}
	return g, nil
}

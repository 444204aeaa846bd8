package scene

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

// A generated scene.
type Scene struct {
	// The options used to generate the scene.
	Options Options

	Spheres []Sphere
}

// Generate a new scene using the supplied options.
func New(opts Options) (*Scene, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Scene{
		Options: opts,
		Spheres: Build(opts, NewRandomSource(opts.Seed)),
	}, nil
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var metals int
	for _, s := range sc.Spheres {
		if s.IsMetal() {
			metals++
		}
	}

	var fillRatio float32
	if sc.Options.MaxSpheres != 0 {
		fillRatio = 100 * float32(len(sc.Spheres)) / float32(sc.Options.MaxSpheres)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"Seed", fmt.Sprint(sc.Options.Seed)})
	table.Append([]string{"Radius range", fmt.Sprintf("[%3.2f, %3.2f]", sc.Options.MinRadius, sc.Options.MaxRadius)})
	table.Append([]string{"Placement radius", fmt.Sprintf("%3.2f", sc.Options.PlacementRadius)})
	table.Append([]string{" ", " "})
	table.Append([]string{"Requested", fmt.Sprint(sc.Options.MaxSpheres)})
	table.Append([]string{"Placed", fmt.Sprintf("%d (%3.1f%%)", len(sc.Spheres), fillRatio)})
	table.Append([]string{"Metal", fmt.Sprint(metals)})
	table.Append([]string{"Dielectric", fmt.Sprint(len(sc.Spheres) - metals)})
	table.SetFooter([]string{"Buffer size", fmtSize(len(sc.Spheres) * SphereStride)})

	table.Render()
	return buf.String()
}

// Build a tabular listing of the scene spheres.
func (sc *Scene) SphereTable() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"#", "Position", "Radius", "Material", "Color"})
	for i, s := range sc.Spheres {
		material, color := "dielectric", s.Albedo
		if s.IsMetal() {
			material, color = "metal", s.Specular
		}
		table.Append([]string{
			fmt.Sprint(i),
			fmt.Sprintf("(%3.2f, %3.2f, %3.2f)", s.Position[0], s.Position[1], s.Position[2]),
			fmt.Sprintf("%3.2f", s.Radius),
			material,
			fmt.Sprintf("(%1.2f, %1.2f, %1.2f)", color[0], color[1], color[2]),
		})
	}

	table.Render()
	return buf.String()
}

// Format a byte count with the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}

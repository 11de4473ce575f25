// Package vtk writes mesh snapshots as VTK ImageData (.vti) files,
// the format ParaView and VisIt read for structured Cartesian meshes.
package vtk

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/espic/internal/plasma"
)

// Writer emits one field_NNNNN.vti file per snapshot into its
// directory, numbering files by an internal counter so cadence changes
// upstream never produce gaps.
type Writer struct {
	dir   string
	index int
}

func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) WriteSnapshot(snap *plasma.Snapshot) error {
	path := filepath.Join(w.dir, fmt.Sprintf("field_%05d.vti", w.index))
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	if err := encode(buf, snap); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}

	w.index++
	return nil
}

func encode(buf *bufio.Writer, snap *plasma.Snapshot) error {
	fmt.Fprintln(buf, `<VTKFile type="ImageData">`)
	fmt.Fprintf(buf, `<ImageData Origin="%g %g %g" Spacing="%g %g %g" WholeExtent="0 %d 0 %d 0 %d">`+"\n",
		snap.Origin.X, snap.Origin.Y, snap.Origin.Z,
		snap.Spacing[0], snap.Spacing[1], snap.Spacing[2],
		snap.Dims[0]-1, snap.Dims[1]-1, snap.Dims[2]-1)

	// Node fields go out as point data.
	fmt.Fprintln(buf, "<PointData>")

	writeScalars(buf, "NodeVol", snap.NodeVolumes)
	writeScalars(buf, "phi", snap.Potential)
	writeScalars(buf, "rho", snap.ChargeDensity)
	for _, d := range snap.Densities {
		writeScalars(buf, d.Name, d.Data)
	}
	writeVectors(buf, "ef", snap.Field)

	fmt.Fprintln(buf, "</PointData>")
	fmt.Fprintln(buf, "</ImageData>")
	_, err := fmt.Fprintln(buf, "</VTKFile>")
	return err
}

func writeScalars(buf *bufio.Writer, name string, data []float64) {
	fmt.Fprintf(buf, `<DataArray Name="%s" NumberOfComponents="1" format="ascii" type="Float64">`+"\n", name)
	for i, v := range data {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	buf.WriteByte('\n')
	fmt.Fprintln(buf, "</DataArray>")
}

func writeVectors(buf *bufio.Writer, name string, data []plasma.Vec3) {
	fmt.Fprintf(buf, `<DataArray Name="%s" NumberOfComponents="3" format="ascii" type="Float64">`+"\n", name)
	for i, v := range data {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(strconv.FormatFloat(v.X, 'g', -1, 64))
		buf.WriteByte(' ')
		buf.WriteString(strconv.FormatFloat(v.Y, 'g', -1, 64))
		buf.WriteByte(' ')
		buf.WriteString(strconv.FormatFloat(v.Z, 'g', -1, 64))
	}
	buf.WriteByte('\n')
	fmt.Fprintln(buf, "</DataArray>")
}

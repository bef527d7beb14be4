package drawlayer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ReadShapefile converts the shapes of a .shp file (with its .dbf attributes)
// into GeoJSON features. Null shapes and unsupported types are skipped.
func ReadShapefile(path string) ([]*geojson.Feature, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer shape.Close()

	fields := shape.Fields()
	fieldNames := make([]string, len(fields))
	for i, f := range fields {
		fieldNames[i] = f.String()
	}

	var features []*geojson.Feature
	for shape.Next() {
		n, p := shape.Shape()

		var geometry orb.Geometry
		switch s := p.(type) {
		case *shp.Null:
			continue
		case *shp.PolyLine:
			geometry = convertPolyLine(s)
		case *shp.Polygon:
			geometry = convertPolygon(s)
		case *shp.Point:
			geometry = orb.Point{s.X, s.Y}
		default:
			slog.Warn("Skipping unsupported shape type", "type", fmt.Sprintf("%T", p), "index", n)
			continue
		}

		f := geojson.NewFeature(geometry)
		for i, name := range fieldNames {
			f.Properties[name] = strings.TrimRight(shape.ReadAttribute(n, i), "\x00 ")
		}
		features = append(features, f)
	}

	if err := shape.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shapes: %w", err)
	}
	return features, nil
}

// ImportShapefile appends every feature of the shapefile to the layer and
// returns how many were added.
func (l *Layer) ImportShapefile(path string) (int, error) {
	features, err := ReadShapefile(path)
	if err != nil {
		return 0, err
	}
	for _, f := range features {
		l.Add(f)
	}
	return len(features), nil
}

// partRange returns the point index range of part i.
func partRange(parts []int32, numPoints int32, i int) (start, end int32) {
	start = parts[i]
	end = numPoints
	if i < len(parts)-1 {
		end = parts[i+1]
	}
	return start, end
}

func convertPolyLine(s *shp.PolyLine) orb.MultiLineString {
	var multiline orb.MultiLineString
	for i := 0; i < int(s.NumParts); i++ {
		start, end := partRange(s.Parts, s.NumPoints, i)
		var line orb.LineString
		for j := start; j < end; j++ {
			line = append(line, orb.Point{s.Points[j].X, s.Points[j].Y})
		}
		multiline = append(multiline, line)
	}
	return multiline
}

// convertPolygon treats every part as a ring of one polygon.
func convertPolygon(s *shp.Polygon) orb.Polygon {
	var poly orb.Polygon
	for i := 0; i < int(s.NumParts); i++ {
		start, end := partRange(s.Parts, s.NumPoints, i)
		var ring orb.Ring
		for j := start; j < end; j++ {
			ring = append(ring, orb.Point{s.Points[j].X, s.Points[j].Y})
		}
		poly = append(poly, ring)
	}
	return poly
}

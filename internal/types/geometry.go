// Copyright 2026 The Corvid Authors
// This file is part of Corvid.
//
// Corvid is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Corvid is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Corvid. If not, see <http://www.gnu.org/licenses/>.

package types

// Geometry covers the WKT-shaped geometry literals SurrealQL accepts
// (point/line/polygon/multi*/collection). Only coordinate storage and
// equality/ordering are needed by the core (spatial predicates and
// external GeoJSON I/O are collaborator concerns, spec.md §1); a single
// tagged struct keeps every sub-kind representable without a second sum
// type.
type GeometryKind uint8

const (
	GeoPoint GeometryKind = iota
	GeoLine
	GeoPolygon
	GeoMultiPoint
	GeoMultiLine
	GeoMultiPolygon
	GeoCollection
)

type Geometry struct {
	GeomKind GeometryKind
	// Point holds [x, y] when GeomKind == GeoPoint.
	Point [2]float64
	// Coords holds nested coordinate rings for Line/Polygon/Multi*.
	Coords [][][2]float64
	// Collection holds sub-geometries when GeomKind == GeoCollection.
	Collection []Geometry
}

func (Geometry) Kind() Kind { return KindGeometry }
func (Geometry) value()     {}

package core

import (
	"fmt"
	"strings"

	packageurl "github.com/package-url/packageurl-go"
)

// PURL renders the coordinate as a Maven package URL.
// Non-default type and classifier travel as qualifiers.
func (c Coordinate) PURL() string {
	// Keys in lexical order.
	var q packageurl.Qualifiers
	if c.Classifier != "" {
		q = append(q, packageurl.Qualifier{Key: "classifier", Value: c.Classifier})
	}
	if c.Type != "" && c.Type != defaultType {
		q = append(q, packageurl.Qualifier{Key: "type", Value: c.Type})
	}
	p := packageurl.NewPackageURL(packageurl.TypeMaven, c.Group, c.Name, c.Version, q, "")
	return p.ToString()
}

// ParseCoordinate parses a coordinate in one of the forms
//
//	group:name:version
//	group:name:type:version
//	group:name:type:classifier:version
//	pkg:maven/group/name@version?type=...&classifier=...
func ParseCoordinate(s string) (Coordinate, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "pkg:") {
		return parsePURLCoordinate(s)
	}

	parts := strings.Split(s, ":")
	var c Coordinate
	switch len(parts) {
	case 3:
		c = Coordinate{Group: parts[0], Name: parts[1], Version: parts[2]}
	case 4:
		c = Coordinate{Group: parts[0], Name: parts[1], Type: parts[2], Version: parts[3]}
	case 5:
		c = Coordinate{Group: parts[0], Name: parts[1], Type: parts[2], Classifier: parts[3], Version: parts[4]}
	default:
		return Coordinate{}, fmt.Errorf("invalid coordinate %q, expected group:name[:type[:classifier]]:version", s)
	}
	if c.Type == "" {
		c.Type = defaultType
	}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

func parsePURLCoordinate(s string) (Coordinate, error) {
	p, err := packageurl.FromString(s)
	if err != nil {
		return Coordinate{}, err
	}
	if p.Type != packageurl.TypeMaven {
		return Coordinate{}, fmt.Errorf("unsupported package type %q in %s", p.Type, s)
	}
	q := p.Qualifiers.Map()
	c := Coordinate{
		Group:      p.Namespace,
		Name:       p.Name,
		Version:    p.Version,
		Classifier: q["classifier"],
		Type:       q["type"],
	}
	if c.Type == "" {
		c.Type = defaultType
	}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

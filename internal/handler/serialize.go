package handler

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"packtree/internal/domain/models"
	"packtree/internal/ordering"
)

const dateLayout = "2006-01-02"

type nodeResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Created       string `json:"created"`
	Changed       string `json:"changed"`
	SortOrder     int    `json:"sort_order"`
	ChildrenCount int    `json:"children_count"`
	PkgCount      int    `json:"pkg_count"`
}

func toNodeResponse(n *models.TreeNode) nodeResponse {
	return nodeResponse{
		ID:            n.ID,
		Name:          n.Text,
		Created:       n.CreateDate.Format(dateLayout),
		Changed:       n.ChangeDate.Format(dateLayout),
		SortOrder:     n.SortOrder,
		ChildrenCount: n.ChildrenCount,
		PkgCount:      n.PackageCount,
	}
}

type packageItemResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Desc      string `json:"desc"`
	Created   string `json:"created"`
	Changed   string `json:"changed"`
	SortOrder int    `json:"sort_order"`
}

func toPackageItemResponse(p *models.ExercisePackage) packageItemResponse {
	return packageItemResponse{
		ID:        p.ID,
		Title:     p.Name,
		Desc:      p.Description,
		Created:   p.CreateDate.Format(dateLayout),
		Changed:   p.ChangeDate.Format(dateLayout),
		SortOrder: p.SortOrder,
	}
}

type packageNodeRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type packageResponse struct {
	packageItemResponse
	Node       packageNodeRef `json:"node"`
	Assignment string         `json:"assignment"`
}

func toPackageResponse(p *models.ExercisePackage) packageResponse {
	return packageResponse{
		packageItemResponse: toPackageItemResponse(p),
		Node:                packageNodeRef{ID: p.NodeID, Name: p.NodeText},
		Assignment:          p.Assignment,
	}
}

// dateFromPayload parses an ISO YYYY-MM-DD string. Anything else, including
// an unparseable date, counts as "not supplied".
func dateFromPayload(value *string) *time.Time {
	if value == nil {
		return nil
	}
	d, err := time.Parse(dateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil
	}
	return &d
}

// flexID accepts the id encodings clients actually send: a JSON number, a
// numeric string, null, "" or "null". Invalid is set when the field was
// present but not numeric, for the few places that must reject that.
type flexID struct {
	Value   *int64
	Invalid bool
}

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			f.Invalid = true
			return nil
		}
		str = strings.TrimSpace(str)
		if str == "" || str == "null" {
			return nil
		}
		v, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			f.Invalid = true
			return nil
		}
		f.Value = &v
		return nil
	}

	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		f.Invalid = true
		return nil
	}
	f.Value = &v
	return nil
}

// placementFrom builds the ordering placement out of the request's
// reference id, direction and absolute position fields.
func placementFrom(ref flexID, direction string, absolute *int) ordering.Placement {
	p := ordering.Placement{
		Direction: ordering.Direction(direction),
		Absolute:  absolute,
	}
	if ref.Value != nil {
		p.RefID = *ref.Value
	}
	return p
}

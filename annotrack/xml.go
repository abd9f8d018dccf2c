package annotrack

import (
	"encoding/xml"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// XML schema of exported annotations:
//
//	<annotations>
//	  <object id="..." name="car" color="#ff0000">
//	    <frame number="0" visible="false" groundTruth="false"/>
//	    <frame number="5" visible="true" groundTruth="true" x="10" y="20" width="30" height="40"/>
//	  </object>
//	</annotations>
type xmlAnnotations struct {
	XMLName xml.Name    `xml:"annotations"`
	Objects []xmlObject `xml:"object"`
}

type xmlObject struct {
	ID     string     `xml:"id,attr"`
	Name   string     `xml:"name,attr,omitempty"`
	Color  string     `xml:"color,attr,omitempty"`
	Frames []xmlFrame `xml:"frame"`
}

type xmlFrame struct {
	Number      int     `xml:"number,attr"`
	Visible     bool    `xml:"visible,attr"`
	GroundTruth bool    `xml:"groundTruth,attr"`
	X           float64 `xml:"x,attr,omitempty"`
	Y           float64 `xml:"y,attr,omitempty"`
	Width       float64 `xml:"width,attr,omitempty"`
	Height      float64 `xml:"height,attr,omitempty"`
}

// ExportXML writes the recorded timeline of every object
func ExportXML(w io.Writer, objects []*AnnotatedObject) error {
	doc := xmlAnnotations{
		Objects: make([]xmlObject, 0, len(objects)),
	}
	for _, obj := range objects {
		xmlObj := xmlObject{
			ID:     obj.GetID().String(),
			Frames: make([]xmlFrame, 0, obj.Len()),
		}
		if class := obj.GetClass(); class != nil {
			xmlObj.Name = class.Name
			xmlObj.Color = class.Color
		}
		for _, frame := range obj.Frames() {
			xmlFr := xmlFrame{
				Number:      frame.FrameNumber,
				Visible:     frame.IsVisible(),
				GroundTruth: frame.IsGroundTruth,
			}
			if frame.BBox != nil {
				xmlFr.X = frame.BBox.X
				xmlFr.Y = frame.BBox.Y
				xmlFr.Width = frame.BBox.Width
				xmlFr.Height = frame.BBox.Height
			}
			xmlObj.Frames = append(xmlObj.Frames, xmlFr)
		}
		doc.Objects = append(doc.Objects, xmlObj)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(err, "can't write XML header")
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrap(err, "can't encode annotations")
	}
	return nil
}

// ImportXML reads annotation timelines. Objects whose frame numbers are not
// strictly increasing, or that contain duplicate frame numbers, are rejected
// with a validation error rather than silently reordered.
func ImportXML(r io.Reader) ([]*AnnotatedObject, error) {
	doc := xmlAnnotations{}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "can't decode annotations")
	}
	objects := make([]*AnnotatedObject, 0, len(doc.Objects))
	for i, xmlObj := range doc.Objects {
		frames := make([]AnnotatedFrame, 0, len(xmlObj.Frames))
		for _, xmlFr := range xmlObj.Frames {
			var bbox *BoundingBox
			if xmlFr.Visible {
				box := NewBoundingBox(xmlFr.X, xmlFr.Y, xmlFr.Width, xmlFr.Height)
				bbox = &box
			}
			frames = append(frames, NewAnnotatedFrame(xmlFr.Number, bbox, xmlFr.GroundTruth))
		}
		obj, err := NewAnnotatedObjectFromFrames(frames)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid object #%d (%s)", i, xmlObj.ID)
		}
		if xmlObj.ID != "" {
			id, err := uuid.Parse(xmlObj.ID)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid object #%d id", i)
			}
			obj.SetID(id)
		}
		if xmlObj.Name != "" || xmlObj.Color != "" {
			obj.SetClass(&ObjectClass{Name: xmlObj.Name, Color: xmlObj.Color})
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

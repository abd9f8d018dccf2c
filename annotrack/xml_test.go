package annotrack

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestXMLRoundTrip(t *testing.T) {
	car := NewAnnotatedObjectWithClass(&ObjectClass{Name: "car", Color: "#ff0000"})
	car.Add(NewAnnotatedFrame(5, boxPtr(10, 20, 30, 40), true))
	car.Add(NewAnnotatedFrame(6, boxPtr(12, 21, 30, 40), false))
	car.Add(NewAnnotatedFrame(7, nil, false))

	anonymous := NewAnnotatedObject()
	anonymous.Add(NewAnnotatedFrame(0, boxPtr(1, 2, 3, 4), true))

	buf := bytes.Buffer{}
	require.NoError(t, ExportXML(&buf, []*AnnotatedObject{car, anonymous}))

	imported, err := ImportXML(&buf)
	require.NoError(t, err)
	require.Len(t, imported, 2)

	require.Equal(t, car.GetID(), imported[0].GetID())
	require.Equal(t, car.GetClass(), imported[0].GetClass())
	require.Equal(t, car.Frames(), imported[0].Frames())

	require.Equal(t, anonymous.GetID(), imported[1].GetID())
	require.Nil(t, imported[1].GetClass())
	require.Equal(t, anonymous.Frames(), imported[1].Frames())
}

func TestImportXMLRejectsNonMonotonicFrames(t *testing.T) {
	doc := `<annotations>
  <object name="car">
    <frame number="5" visible="false" groundTruth="true"/>
    <frame number="3" visible="false" groundTruth="true"/>
  </object>
</annotations>`
	_, err := ImportXML(strings.NewReader(doc))
	require.Error(t, err)
}

func TestImportXMLRejectsDuplicateFrames(t *testing.T) {
	doc := `<annotations>
  <object name="car">
    <frame number="4" visible="false" groundTruth="true"/>
    <frame number="4" visible="false" groundTruth="true"/>
  </object>
</annotations>`
	_, err := ImportXML(strings.NewReader(doc))
	require.Error(t, err)
}

func TestImportXMLGeneratesMissingIDs(t *testing.T) {
	doc := `<annotations>
  <object>
    <frame number="0" visible="true" groundTruth="true" x="1" y="2" width="3" height="4"/>
  </object>
</annotations>`
	imported, err := ImportXML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, imported, 1)
	require.NotZero(t, imported[0].GetID())
}

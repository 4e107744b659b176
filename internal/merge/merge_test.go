package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreespyn/flatdata/internal/record"
)

func contact(id int64, placeID string) record.Contact {
	return record.Contact{ID: id, PlaceID: placeID, Emails: "x@x.com", Title: "Dev"}
}

func place(placeID string) record.Place {
	return record.Place{PlaceID: placeID, DisplayName: "Town " + placeID}
}

func TestMerge_RowCountUnchangedByTagCardinality(t *testing.T) {
	// k = 0, 1, and 3 tag rows per place; each place hosts one contact.
	contacts := []record.Contact{contact(1, "p0"), contact(2, "p1"), contact(3, "p3")}
	places := []record.Place{place("p0"), place("p1"), place("p3")}
	tags := []record.TechTag{
		{PlaceID: "p1", Name: "React"},
		{PlaceID: "p3", Name: "React"},
		{PlaceID: "p3", Name: "Node"},
		{PlaceID: "p3", Name: "Postgres"},
	}

	out, err := Merge(contacts, places, tags, nil, nil)

	require.NoError(t, err)
	require.Len(t, out, len(contacts), "tag cardinality must never change the row count")
	assert.Empty(t, out[0].TagNames)
	assert.Equal(t, []string{"React"}, out[1].TagNames)
	assert.Equal(t, []string{"React", "Node", "Postgres"}, out[2].TagNames)
}

func TestMerge_ContactWithoutPlaceKept(t *testing.T) {
	contacts := []record.Contact{contact(1, "p1"), contact(2, "missing")}
	places := []record.Place{place("p1")}

	out, err := Merge(contacts, places, nil, nil, nil)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.NotNil(t, out[0].Place)
	assert.Nil(t, out[1].Place, "left join keeps contacts with no matching entity")
}

func TestMerge_MappingVariantsAttach(t *testing.T) {
	contacts := []record.Contact{contact(1, "p1"), contact(2, "p2")}
	places := []record.Place{place("p1"), place("p2")}
	sfdc := []record.Mapping{{ExternalID: "00AAA", PlaceID: "p1"}}
	hubspot := []record.Mapping{{ExternalID: "hub1", PlaceID: "p2"}}

	out, err := Merge(contacts, places, nil, sfdc, hubspot)

	require.NoError(t, err)
	require.NotNil(t, out[0].SFDCID)
	assert.Equal(t, "00AAA", *out[0].SFDCID)
	assert.Nil(t, out[0].HubspotID)
	require.NotNil(t, out[1].HubspotID)
	assert.Equal(t, "hub1", *out[1].HubspotID)
}

func TestMerge_DuplicateMappingKeepsFirst(t *testing.T) {
	contacts := []record.Contact{contact(1, "p1")}
	places := []record.Place{place("p1")}
	sfdc := []record.Mapping{
		{ExternalID: "00FIRST", PlaceID: "p1"},
		{ExternalID: "00SECOND", PlaceID: "p1"},
	}

	out, err := Merge(contacts, places, nil, sfdc, nil)

	require.NoError(t, err)
	require.Len(t, out, 1, "duplicate mappings must not fan out contact rows")
	require.NotNil(t, out[0].SFDCID)
	assert.Equal(t, "00FIRST", *out[0].SFDCID)
}

func TestMerge_DuplicatePlaceKeepsFirst(t *testing.T) {
	contacts := []record.Contact{contact(1, "p1")}
	places := []record.Place{
		{PlaceID: "p1", DisplayName: "First"},
		{PlaceID: "p1", DisplayName: "Second"},
	}

	out, err := Merge(contacts, places, nil, nil, nil)

	require.NoError(t, err)
	require.NotNil(t, out[0].Place)
	assert.Equal(t, "First", out[0].Place.DisplayName)
}

func TestMerge_EmptyContactsIsError(t *testing.T) {
	_, err := Merge(nil, []record.Place{place("p1")}, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no contacts")
}

func TestMerge_EmptyPlacesIsError(t *testing.T) {
	_, err := Merge([]record.Contact{contact(1, "p1")}, nil, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no places")
}

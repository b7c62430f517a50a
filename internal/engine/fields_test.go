package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdcn-access/internal/metadata"
)

func newTestResolver(t *testing.T) *FieldResolver {
	t.Helper()
	c, err := metadata.DefaultCatalog()
	require.NoError(t, err)
	return NewFieldResolver(c, WithClock(func() time.Time { return fixedNow }))
}

func keysOf(fields []metadata.FieldDefinition) []string {
	return lo.Map(fields, func(f metadata.FieldDefinition, _ int) string { return f.Key })
}

func activeMember() map[string]any {
	return map[string]any{
		"lidnummer":     1234,
		"status":        "Actief",
		"regio":         "Utrecht",
		"lidmaatschap":  "Gewoon lid",
		"geboortedatum": "1980-05-01",
		"motormerk":     "Harley-Davidson",
	}
}

func TestResolveFieldsForContext_UnknownContext(t *testing.T) {
	r := newTestResolver(t)
	_, err := r.ResolveFieldsForContext("noSuchContext", "hdcnAdmins", nil, FieldAccess{})

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "UNKNOWN_CONTEXT", appErr.Code)
	assert.Contains(t, appErr.Message, "noSuchContext")
}

func TestResolveFieldsForContext_TableColumns(t *testing.T) {
	r := newTestResolver(t)

	fields, err := r.ResolveFieldsForContext("financialTable", "Financial_Read", nil, FieldAccess{})
	require.NoError(t, err)
	assert.Equal(t, []string{"lidmaatschap", "bankrekeningnummer", "sponsorbedrag"}, keysOf(fields))

	fields, err = r.ResolveFieldsForContext("memberTable", "Events_Read", nil, FieldAccess{})
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestResolveFieldsForContext_ModalOrderAndConditions(t *testing.T) {
	r := newTestResolver(t)

	fields, err := r.ResolveFieldsForContext("memberModal", "hdcnAdmins", activeMember(), FieldAccess{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"voornaam", "achternaam", "email", "telefoon", "geboortedatum",
		"lidnummer", "regio", "lidmaatschap", "status",
		"motormerk",
		"bankrekeningnummer",
		"notities",
	}, keysOf(fields), "adult: no parent email, not a sponsor")

	minor := activeMember()
	minor["geboortedatum"] = "2010-06-01"
	minor["lidmaatschap"] = "Sponsor"
	fields, err = r.ResolveFieldsForContext("memberModal", "hdcnAdmins", minor, FieldAccess{})
	require.NoError(t, err)
	keys := keysOf(fields)
	assert.Contains(t, keys, "ouder_email")
	assert.Contains(t, keys, "sponsorbedrag")
	assert.NotContains(t, keys, "motormerk", "membership type excludes the motor field")
}

func TestCanEditField_SelfService(t *testing.T) {
	r := newTestResolver(t)
	field := &metadata.FieldDefinition{
		Key:         "bijnaam",
		Permissions: metadata.FieldPermissions{View: []string{"hdcnAdmins"}, Edit: []string{}, SelfService: true},
	}

	assert.True(t, r.CanEditField(field, "hdcnLeden", nil, FieldAccess{IsOwnRecord: true}))
	assert.False(t, r.CanEditField(field, "hdcnLeden", nil, FieldAccess{IsOwnRecord: false}))
	assert.True(t, r.CanEditField(field, "verzoek_lid", nil, FieldAccess{IsOwnRecord: true}))
	assert.False(t, r.CanEditField(field, "Members_Read", nil, FieldAccess{IsOwnRecord: true}), "self-service is for member roles")
	assert.False(t, r.CanEditField(nil, "hdcnAdmins", nil, FieldAccess{}))
}

func TestCanViewField_HideWinsOverShow(t *testing.T) {
	r := newTestResolver(t)
	field := &metadata.FieldDefinition{
		Key:         "opmerking",
		Permissions: metadata.FieldPermissions{View: []string{"hdcnAdmins"}},
		ShowWhen:    []metadata.ConditionalRule{{Field: "status", Operator: metadata.OpEquals, Value: "Actief"}},
		HideWhen:    []metadata.ConditionalRule{{Field: "regio", Operator: metadata.OpExists}},
	}

	assert.False(t, r.CanViewField(field, "hdcnAdmins", map[string]any{"status": "Actief", "regio": "Oost"}, FieldAccess{}))
	assert.True(t, r.CanViewField(field, "hdcnAdmins", map[string]any{"status": "Actief"}, FieldAccess{}))
	assert.False(t, r.CanViewField(field, "hdcnAdmins", map[string]any{"status": "Opgezegd"}, FieldAccess{}))
}

func TestCanEditField_ConditionalEditReplacesList(t *testing.T) {
	r := newTestResolver(t)
	lid := r.Catalog().Field("lidnummer")
	require.NotNil(t, lid)

	applied := map[string]any{"status": "Aangemeld", "lidmaatschap": "Gewoon lid"}
	active := map[string]any{"status": "Actief", "lidmaatschap": "Gewoon lid"}

	assert.True(t, r.CanEditField(lid, "Members_CRUD", applied, FieldAccess{}))
	assert.False(t, r.CanEditField(lid, "Members_CRUD", active, FieldAccess{}), "default edit list is empty")

	status := r.Catalog().Field("status")
	override := *status
	override.ConditionalEdit = &metadata.ConditionalEdit{
		Condition:   metadata.ConditionalRule{Field: "status", Operator: metadata.OpEquals, Value: "Overleden"},
		Permissions: []string{"hdcnAdmins"},
	}
	assert.True(t, r.CanEditField(&override, "Members_Status_Approve", active, FieldAccess{}))
	assert.False(t, r.CanEditField(&override, "Members_Status_Approve", map[string]any{"status": "Overleden"}, FieldAccess{}),
		"override replaces the default list instead of extending it")
}

func TestCanViewField_RegionalRestriction(t *testing.T) {
	r := newTestResolver(t)
	phone := r.Catalog().Field("telefoon")
	require.NotNil(t, phone)
	record := activeMember()

	assert.True(t, r.CanViewField(phone, "Members_Read", record, FieldAccess{UserRegion: "utrecht"}))
	assert.False(t, r.CanViewField(phone, "Members_Read", record, FieldAccess{UserRegion: "Oost"}))
	assert.False(t, r.CanViewField(phone, "Members_Read", record, FieldAccess{}))
	assert.True(t, r.CanViewField(phone, "Members_CRUD", record, FieldAccess{}), "only the broad read role is restricted")
}

func TestCanViewField_MembershipTypes(t *testing.T) {
	r := newTestResolver(t)
	amount := r.Catalog().Field("sponsorbedrag")

	assert.True(t, r.CanViewField(amount, "Financial_Read", map[string]any{"lidmaatschap": "Sponsor"}, FieldAccess{}))
	assert.False(t, r.CanViewField(amount, "Financial_Read", map[string]any{"lidmaatschap": "Erelid"}, FieldAccess{}))
	assert.False(t, r.CanViewField(amount, "hdcnAdmins", map[string]any{}, FieldAccess{}), "hidden regardless of role")
}

func TestCanViewField_ExpressionRule(t *testing.T) {
	r := newTestResolver(t)
	motor := r.Catalog().Field("motormerk")
	record := activeMember()

	assert.True(t, r.CanViewField(motor, "hdcnLeden", record, FieldAccess{}))
	record["status"] = "Overleden"
	assert.False(t, r.CanViewField(motor, "hdcnLeden", record, FieldAccess{}))
}

func TestEditableFieldsForContext(t *testing.T) {
	r := newTestResolver(t)
	record := activeMember()

	fields, err := r.EditableFieldsForContext("memberModal", "hdcnLeden", record, FieldAccess{IsOwnRecord: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"voornaam", "achternaam", "email", "telefoon", "geboortedatum",
		"lidmaatschap", "motormerk", "bankrekeningnummer",
	}, keysOf(fields))

	fields, err = r.EditableFieldsForContext("memberModal", "hdcnLeden", record, FieldAccess{})
	require.NoError(t, err)
	assert.Empty(t, fields)
}

package envelope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terzoomedia/hasad-go/internal/models"
	apperrors "github.com/terzoomedia/hasad-go/pkg/errors"
)

func TestParseBareArrayBody(t *testing.T) {
	env, err := Parse([]byte(`[{"id":1,"name":"Acme"}]`))
	require.NoError(t, err)

	items, meta, err := Collection[models.Client](env, "clients")
	require.NoError(t, err)
	require.Nil(t, meta)
	require.Len(t, items, 1)
	require.Equal(t, "Acme", items[0].Name)
}

func TestCollectionDataAsArray(t *testing.T) {
	env, err := Parse([]byte(`{"success":true,"data":[{"id":1},{"id":2}]}`))
	require.NoError(t, err)

	items, _, err := Collection[models.Client](env, "clients")
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestCollectionNestedUnderKey(t *testing.T) {
	env, err := Parse([]byte(`{"success":true,"data":{"users":[{"id":7,"name":"Sara","email":"sara@example.com"}]}}`))
	require.NoError(t, err)

	items, _, err := Collection[models.User](env, "users")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Sara", items[0].Name)
}

func TestCollectionTopLevelKey(t *testing.T) {
	env, err := Parse([]byte(`{"success":true,"roles":[{"id":1,"name":"Admin"}]}`))
	require.NoError(t, err)

	items, _, err := Collection[models.Role](env, "roles")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Admin", items[0].Name)
}

func TestCollectionUnrecognisedShapeIsEmptyNotError(t *testing.T) {
	env, err := Parse([]byte(`{"success":true,"data":null}`))
	require.NoError(t, err)

	items, meta, err := Collection[models.Client](env, "clients")
	require.NoError(t, err)
	require.Nil(t, meta)
	require.Empty(t, items)
	require.NotNil(t, items)
}

func TestPaginationRequiresEveryField(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"complete", `{"data":[],"meta":{"pagination":{"current_page":2,"last_page":5,"per_page":10,"total":48}}}`, true},
		{"zero per_page", `{"data":[],"meta":{"pagination":{"current_page":2,"last_page":5,"per_page":0,"total":48}}}`, false},
		{"missing block", `{"data":[]}`, false},
		{"zero last_page", `{"data":[],"meta":{"pagination":{"current_page":1,"last_page":0,"per_page":10,"total":0}}}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Parse([]byte(tc.body))
			require.NoError(t, err)
			if tc.want {
				require.NotNil(t, env.Pagination())
			} else {
				require.Nil(t, env.Pagination())
			}
		})
	}
}

func TestEntityNestedUnderKey(t *testing.T) {
	env, err := Parse([]byte(`{"success":true,"data":{"client":{"id":3,"name":"Acme"}}}`))
	require.NoError(t, err)

	client, err := Entity[models.Client](env, "client")
	require.NoError(t, err)
	require.Equal(t, 3, client.ID)
}

func TestEntityFlatData(t *testing.T) {
	env, err := Parse([]byte(`{"success":true,"data":{"id":9,"name":"Acme"}}`))
	require.NoError(t, err)

	client, err := Entity[models.Client](env, "client")
	require.NoError(t, err)
	require.Equal(t, 9, client.ID)
}

func TestEntityTopLevelKey(t *testing.T) {
	env, err := Parse([]byte(`{"success":true,"report":{"id":4,"status":"submitted"}}`))
	require.NoError(t, err)

	report, err := Entity[models.ServiceReport](env, "report")
	require.NoError(t, err)
	require.Equal(t, models.ReportSubmitted, report.Status)
}

func TestEntityMissingIsTypedError(t *testing.T) {
	env, err := Parse([]byte(`{"success":true,"message":"Report submitted successfully"}`))
	require.NoError(t, err)

	_, err = Entity[models.ServiceReport](env, "report")
	require.Error(t, err)

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperrors.ErrMissingEntity.Code, appErr.Code)
}

func TestFieldErrorsStringAndArrayValues(t *testing.T) {
	env, err := Parse([]byte(`{"success":false,"errors":{"email":["taken","invalid"],"name":"required"}}`))
	require.NoError(t, err)

	fields := FieldErrors(env.Errors)
	require.Equal(t, []string{"taken", "invalid"}, fields["email"])
	require.Equal(t, []string{"required"}, fields["name"])
}

func TestErrorMessagePrefersMessage(t *testing.T) {
	env, err := Parse([]byte(`{"success":false,"message":"Not allowed","error":"forbidden"}`))
	require.NoError(t, err)
	require.Equal(t, "Not allowed", env.ErrorMessage())

	env, err = Parse([]byte(`{"success":false,"error":"forbidden"}`))
	require.NoError(t, err)
	require.Equal(t, "forbidden", env.ErrorMessage())
}

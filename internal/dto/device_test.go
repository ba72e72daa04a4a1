package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field_tracker/internal/services"
)

func TestDeviceCredentialsAcceptNumberOrString(t *testing.T) {
	cases := map[string]FlexID{
		`{"cid": 12, "ckey": "k"}`:    12,
		`{"cid": "12", "ckey": "k"}`:  12,
		`{"cid": "abc", "ckey": "k"}`: 0,
		`{"cid": -3, "ckey": "k"}`:    0,
		`{"ckey": "k"}`:               0,
	}
	for body, want := range cases {
		var creds DeviceCredentials
		require.NoError(t, json.Unmarshal([]byte(body), &creds), body)
		assert.Equal(t, want, creds.CID, body)
		assert.Equal(t, "k", creds.CKey)
	}
}

func TestProfileRequestID(t *testing.T) {
	for _, body := range []string{`{}`, `{"profile_id": null}`, `{"profile_id": 0}`, `{"profile_id": ""}`} {
		var req ProfileRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		id, err := req.ProfileID.Value("profile_id")
		require.NoError(t, err, body)
		assert.Nil(t, id, body)
	}

	for body, want := range map[string]uint{`{"profile_id": 7}`: 7, `{"profile_id": "7"}`: 7, `{"profile_id": "0"}`: 0} {
		var req ProfileRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		id, err := req.ProfileID.Value("profile_id")
		require.NoError(t, err, body)
		require.NotNil(t, id, body)
		assert.Equal(t, want, *id, body)
	}

	for _, body := range []string{`{"profile_id": "abc"}`, `{"profile_id": -5}`, `{"profile_id": "7x"}`, `{"profile_id": 1.5}`, `{"profile_id": true}`} {
		var req ProfileRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		_, err := req.ProfileID.Value("profile_id")
		var verr *services.ValidationError
		require.ErrorAs(t, err, &verr, body)
		assert.Equal(t, "must be an integer id", verr.Fields["profile_id"])
	}
}

func TestLocationRequestAcceptsNumericStrings(t *testing.T) {
	var req LocationRequest
	require.NoError(t, json.Unmarshal([]byte(`{"geo": {"lat": "55.75", "long": 37.62}}`), &req))
	in := req.Geo.Input()
	require.NotNil(t, in.Latitude)
	require.NotNil(t, in.Longitude)
	assert.Equal(t, 55.75, *in.Latitude)
	assert.Equal(t, 37.62, *in.Longitude)

	req = LocationRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"geo": {"long": null}}`), &req))
	in = req.Geo.Input()
	assert.Nil(t, in.Latitude)
	assert.Nil(t, in.Longitude)

	assert.Error(t, json.Unmarshal([]byte(`{"geo": {"lat": "north", "long": 1}}`), &req))
}

func TestTaskRequestTaskID(t *testing.T) {
	var req TaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"task_id": 981, "status": "finished"}`), &req))
	assert.Equal(t, FlexString("981"), req.TaskID)

	require.NoError(t, json.Unmarshal([]byte(`{"task_id": "T-7"}`), &req))
	assert.Equal(t, FlexString("T-7"), req.TaskID)

	assert.Error(t, json.Unmarshal([]byte(`{"task_id": {"x": 1}}`), &req))
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	raw, err := json.Marshal(OK(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"scs": true}`, string(raw))

	raw, err = json.Marshal(Fail(EmsgUnauthorized, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"scs": false, "emsg": 1}`, string(raw))
}

package tizen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConnect(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"event":"ms.channel.connect","data":{"id":"abc","token":"98765"}}`))
	require.NoError(t, err)
	assert.Equal(t, MessageConnect, msg.Kind)
	assert.Equal(t, "98765", msg.Token)

	msg, err = DecodeMessage([]byte(`{"event":"ms.channel.connect","data":{"token":12345}}`))
	require.NoError(t, err)
	assert.Equal(t, "12345", msg.Token)

	msg, err = DecodeMessage([]byte(`{"event":"ms.channel.connect"}`))
	require.NoError(t, err)
	assert.Equal(t, MessageConnect, msg.Kind)
	assert.Empty(t, msg.Token)
}

func TestDecodeUnauthorized(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"event":"ms.channel.unauthorized"}`))
	require.NoError(t, err)
	assert.Equal(t, MessageUnauthorized, msg.Kind)
}

func TestDecodeInstalledApps(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"event":"ed.installedApp.get","data":{"data":[
		{"appId":"111299001912","app_type":2,"name":"YouTube","icon":"/opt/x.png"},
		{"appId":"3201907018807","app_type":"4","name":"Netflix"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, MessageInstalledApps, msg.Kind)
	require.Len(t, msg.Apps, 2)
	assert.Equal(t, App{ID: "111299001912", Name: "YouTube", Type: AppTypeDeepLink}, msg.Apps[0])
	assert.Equal(t, AppTypeNative, msg.Apps[1].Type)

	_, err = DecodeMessage([]byte(`{"event":"ed.installedApp.get"}`))
	assert.Error(t, err)
	_, err = DecodeMessage([]byte(`{"event":"ed.installedApp.get","data":{}}`))
	assert.Error(t, err)
	_, err = DecodeMessage([]byte(`{"event":"ed.installedApp.get","data":{"data":[{"appId":"x","app_type":"web"}]}}`))
	assert.Error(t, err)
}

func TestDecodeAppStatus(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"id":"3201907018807","result":true}`))
	require.NoError(t, err)
	assert.Equal(t, MessageAppStatus, msg.Kind)
	assert.Equal(t, AppStatus{ID: "3201907018807", Running: true}, msg.Status)
	assert.True(t, msg.Status.Foreground())

	msg, err = DecodeMessage([]byte(`{"id":"111299001912","result":{"id":"111299001912","running":true,"visible":false}}`))
	require.NoError(t, err)
	assert.Equal(t, MessageAppStatus, msg.Kind)
	assert.True(t, msg.Status.Detailed)
	assert.False(t, msg.Status.Foreground())

	msg, err = DecodeMessage([]byte(`{"id":"111299001912","result":{"running":true,"visible":true}}`))
	require.NoError(t, err)
	assert.Equal(t, "111299001912", msg.Status.ID)
	assert.True(t, msg.Status.Foreground())

	msg, err = DecodeMessage([]byte(`{"id":"111299001912","result":false}`))
	require.NoError(t, err)
	assert.False(t, msg.Status.Foreground())
}

func TestDecodeErrors(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"id":"x","error":{"code":404,"message":"not found"}}`))
	require.NoError(t, err)
	assert.Equal(t, MessageDeviceError, msg.Kind)
	assert.Equal(t, "not found", msg.Error)

	msg, err = DecodeMessage([]byte(`{"event":"ms.error","data":{"message":"unrecognized method"}}`))
	require.NoError(t, err)
	assert.Equal(t, MessageDeviceError, msg.Kind)
	assert.Equal(t, "unrecognized method", msg.Error)
}

func TestDecodeUnknown(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"event":"ms.channel.clientConnect","data":{}}`))
	require.NoError(t, err)
	assert.Equal(t, MessageEvent, msg.Kind)
	assert.Equal(t, "event", msg.Kind.String())

	msg, err = DecodeMessage([]byte(`{"id":"x","result":"started"}`))
	require.NoError(t, err)
	assert.Equal(t, MessageUnknown, msg.Kind)

	msg, err = DecodeMessage([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, MessageUnknown, msg.Kind)

	_, err = DecodeMessage([]byte(`not json`))
	assert.Error(t, err)
	_, err = DecodeMessage([]byte(`[1,2]`))
	assert.Error(t, err)
}

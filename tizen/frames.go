package tizen

// outbound frames, serialized with encoding/json by wsjson

type request struct {
	ID     string `json:"id,omitempty"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type remoteControlParams struct {
	Cmd          KeyCommand `json:"Cmd"`
	DataOfCmd    string     `json:"DataOfCmd"`
	Option       string     `json:"Option"`
	TypeOfRemote string     `json:"TypeOfRemote"`
}

type emitParams struct {
	Event string `json:"event"`
	To    string `json:"to"`
	Data  any    `json:"data,omitempty"`
}

type launchData struct {
	ActionType string `json:"action_type"`
	AppID      string `json:"appId"`
	MetaTag    string `json:"metaTag"`
}

type idParams struct {
	ID string `json:"id"`
}

func keyRequest(cmd KeyCommand, key string) request {
	return request{
		Method: "ms.remote.control",
		Params: remoteControlParams{Cmd: cmd, DataOfCmd: key, Option: "false", TypeOfRemote: "SendRemoteKey"},
	}
}

func installedAppsRequest() request {
	return request{
		Method: "ms.channel.emit",
		Params: emitParams{Event: eventInstalledApps, To: "host"},
	}
}

func launchRequest(appID, actionType, metaTag string) request {
	return request{
		Method: "ms.channel.emit",
		Params: emitParams{
			Event: "ed.apps.launch",
			To:    "host",
			Data:  launchData{ActionType: actionType, AppID: appID, MetaTag: metaTag},
		},
	}
}

func startRequest(appID string) request {
	return request{ID: appID, Method: "ms.application.start", Params: idParams{ID: appID}}
}

func statusRequest(app App) request {
	return request{ID: app.ID, Method: app.Type.statusMethod(), Params: idParams{ID: app.ID}}
}

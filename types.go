package mediasoup

// H is a generic JSON object.
type H map[string]any

// AppData is custom application data attached to an entity. It is never sent
// to the worker.
type AppData = H

func orEmpty(appData H) H {
	if appData == nil {
		return H{}
	}
	return appData
}

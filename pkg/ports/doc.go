// Package ports declares the interfaces between the dialog core and its
// collaborators: document storage for authored graphs and state storage
// for playback sessions. Adapters under pkg/adapters implement them.
package ports

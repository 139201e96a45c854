// Package driving defines the interfaces external actors use to drive
// the retrieval engine. The CLI adapter and any host application
// embedding the engine call these; core services implement them.
package driving

// Package sdk is a typed Go client for a flowgate MCP server.
//
// Each workflow tool has a method. Status, State, GetSchema and Prompt only
// read, so they are retried with backoff. Methods that advance the workflow
// are sent exactly once and return a Reply; when the server refuses an action
// because a prerequisite is missing, Reply.Blocked is set and Reply.Text says
// what to do first. WithStrictGates turns those replies into a *BlockedError.
//
//	transport, _ := client.NewStdioTransport("flowgate", "mcp")
//	c := sdk.NewClient(transport, sdk.WithStrictGates())
//	defer c.Close()
//
//	if _, err := c.Initialize(ctx); err != nil {
//		return err
//	}
//	if _, err := c.Implement(ctx); errors.Is(err, sdk.ErrBlocked) {
//		// research and an approved plan come first
//	}
package sdk

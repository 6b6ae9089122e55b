// Package live implements the live graph channel.
//
// Viewers connect to a [Hub] over a websocket. On connect the hub assigns a
// room (or joins the one named by the room_id query parameter) and sends a
// new-room message. Documents uploaded to the room are broadcast to every
// subscriber as new-graph messages.
//
// [Client] is the viewer side: it dials the hub, keeps the connection up
// and hands every received graph, normalized, to a [Handler].
package live

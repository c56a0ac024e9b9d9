/*
Package session implements the per-connection protocol of the mediator.

A Peer reads whitespace-tokenized lines from its link and turns them into
domain commands according to its phase:

	start  --hello <tag>-------------> first   Register(tag)
	first  --stepped <from> <to>-----> active  Stepped(from), Stepped(to)
	active --stepped <from> <to>-----> active  Stepped(to)
	any    --hop|juggle|reach|clear--> same    control command

Anything else is logged and ignored; an unparsable line never closes the
connection. End of stream or a read error moves the session to closed.
*/
package session

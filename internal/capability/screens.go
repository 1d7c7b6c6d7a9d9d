package capability

import (
	"fmt"
	"strconv"
	"strings"

	"peerchat/internal/command"
	"peerchat/internal/session"
	"peerchat/util"
)

// header is printed once the handshake frame is out.
func (c *Chat) header(sess *session.Session) {
	con := sess.Console
	con.Println("")
	con.Title("Chat Started")
	con.Println("Commands: " + strings.Join(command.Words(), ", "))
	con.Rule()
}

func (c *Chat) help(sess *session.Session) {
	con := sess.Console
	con.Println("")
	con.Title("Help")
	for _, l := range command.HelpLines() {
		con.Println(l)
	}
	con.Println("")
}

// info never touches the network.
func (c *Chat) info(sess *session.Session) {
	con := sess.Console
	con.Println("")
	con.Title("Connection Info")
	con.Field("Username", sess.Name)
	con.Field("Local IP", c.localIP())

	if conn := sess.Conn(); conn != nil {
		peerIP, remotePort := util.SplitAddr(conn.RemoteAddr())
		_, localPort := util.SplitAddr(conn.LocalAddr())
		con.Field("Peer IP", peerIP)
		con.Field("Local Port", strconv.Itoa(localPort))
		con.Field("Remote Port", strconv.Itoa(remotePort))
		con.Field("Peer", sess.PeerName())

		m := sess.Metrics
		con.Field("Messages", fmt.Sprintf("%d sent, %d received", m.FramesSent(), m.FramesReceived()))
	}
	con.Println("========================")
	con.Println("")
}

// Pithon monitor - read-only terminal dashboard for a running console.
//
// Subscribes to the console's state stream over websocket and renders
// channel values, gesture indicators, and the orientation estimate.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"github.com/Adam-Vandervorst/pithon/internal/httpc"
	"github.com/Adam-Vandervorst/pithon/pkg/actuator"
	"github.com/Adam-Vandervorst/pithon/pkg/orientation"
)

// degreesSet is the chart dataset for the rotation magnitude.
const degreesSet = "degrees"

const (
	headerHeight = 2
	footerHeight = 4
	maxLogs      = 3
	borderSize   = 2
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	servoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	motorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// event mirrors one JSON message on the console's state stream.
type event struct {
	Type        string              `json:"type"`
	Channel     string              `json:"channel"`
	Value       int                 `json:"value"`
	Orientation *orientation.Report `json:"orientation"`
}

type stateMsg event
type disconnectMsg struct{ err error }

// stream owns the websocket and feeds decoded events to the TUI.
type stream struct {
	conn   *websocket.Conn
	events chan event
}

func dial(addr string) (*stream, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws/state"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", u.String(), err)
	}

	s := &stream{conn: conn, events: make(chan event, 64)}
	go func() {
		defer close(s.events)
		for {
			var ev event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			s.events <- ev
		}
	}()
	return s, nil
}

// fetchChannels grabs the current channel values so the monitor shows
// the full table before the first state update arrives.
func fetchChannels(addr string) (map[string]int, error) {
	resp, err := httpc.Get("http://" + addr + "/api/channels")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var channels []actuator.Channel
	if err := json.NewDecoder(resp.Body).Decode(&channels); err != nil {
		return nil, err
	}
	values := make(map[string]int, len(channels))
	for _, ch := range channels {
		values[ch.ID] = ch.Current
	}
	return values, nil
}

func waitForEvent(s *stream) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.events
		if !ok {
			return disconnectMsg{}
		}
		return stateMsg(ev)
	}
}

type model struct {
	addr     string
	stream   *stream
	chart    *streamlinechart.Model
	width    int
	height   int
	channels map[string]int
	forwards int
	turn     int
	report   orientation.Report
	logs     []string
	quitting bool
}

func (m *model) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *model) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 60, 10
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - footerHeight - borderSize - 16
	if height < 6 {
		height = 6
	}
	return width, height
}

func initialModel(addr string, s *stream) model {
	chart := streamlinechart.New(60, 10,
		streamlinechart.WithYRange(0, 180),
	)
	chart.SetDataSetStyles(degreesSet, runes.ThinLineStyle, servoStyle)

	channels, err := fetchChannels(addr)
	if err != nil {
		channels = make(map[string]int)
	}

	return model{
		addr:     addr,
		stream:   s,
		chart:    &chart,
		channels: channels,
	}
}

func (m model) Init() tea.Cmd {
	return waitForEvent(m.stream)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.chartSize()
		m.chart.Resize(w, h)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.stream.conn.Close()
			return m, tea.Quit
		}

	case stateMsg:
		switch msg.Type {
		case "channel":
			m.channels[msg.Channel] = msg.Value
		case "forwards":
			m.forwards = msg.Value
		case "turn":
			m.turn = msg.Value
		case "orientation":
			if msg.Orientation != nil {
				m.report = *msg.Orientation
				m.chart.PushDataSet(degreesSet, m.report.Degrees)
				m.chart.DrawAll()
			}
		}
		return m, waitForEvent(m.stream)

	case disconnectMsg:
		m.addLog("state stream closed")
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Pithon Monitor"))
	sb.WriteString(statusStyle.Render("  " + m.addr))
	sb.WriteString("\n\n")

	sb.WriteString(renderChannels(m.channels))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Forwards %4d   Turn %4d   Rotation %6.1f° about (%.2f, %.2f, %.2f)\n",
		m.forwards, m.turn, m.report.Degrees, m.report.X, m.report.Y, m.report.Z))

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	if len(m.logs) == 0 {
		sb.WriteString(statusStyle.Render("Press 'q' to quit"))
	} else {
		sb.WriteString(statusStyle.Render(strings.Join(m.logs, "\n")))
	}
	sb.WriteString("\n")

	return sb.String()
}

// renderChannels lists channel values in id order, servos before motors.
func renderChannels(channels map[string]int) string {
	ids := make([]string, 0, len(channels))
	for id := range channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	for _, id := range ids {
		style := servoStyle
		if strings.HasPrefix(id, "M") {
			style = motorStyle
		}
		sb.WriteString(fmt.Sprintf("%s %4d   ", style.Render(id), channels[id]))
	}
	if sb.Len() == 0 {
		return statusStyle.Render("waiting for state updates...")
	}
	return sb.String()
}

func main() {
	addr := flag.String("addr", "localhost:8080", "Console dashboard address")
	flag.Parse()

	s, err := dial(*addr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	p := tea.NewProgram(initialModel(*addr, s), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}

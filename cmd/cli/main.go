package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type menuEntry struct {
	ID    string
	Name  string
	Price int64
}

type scenario struct {
	Name        string
	Description string
}

var sampleMenu = []menuEntry{
	{"menu-1", "Nasi Goreng Spesial", 35000},
	{"menu-2", "Ayam Bakar Madu", 42000},
	{"menu-3", "Es Teh Manis", 8000},
	{"menu-4", "Sate Ayam (10 tusuk)", 30000},
}

type model struct {
	scenarios    []scenario
	menu         []menuEntry
	selectedItem int
	selectedScn  int
	status       string
	cartSummary  string
	busy         bool
}

func initialModel() model {
	return model{
		scenarios: []scenario{
			{"success", "Checkout, widget reports success"},
			{"pending", "Checkout, payment stays pending"},
			{"error", "Checkout, payment fails"},
			{"close", "Checkout, customer dismisses widget"},
		},
		menu:   sampleMenu,
		status: "Ready",
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up":
			if m.selectedItem > 0 {
				m.selectedItem--
			}
		case "down":
			if m.selectedItem < len(m.menu)-1 {
				m.selectedItem++
			}
		case "left":
			if m.selectedScn > 0 {
				m.selectedScn--
			}
		case "right":
			if m.selectedScn < len(m.scenarios)-1 {
				m.selectedScn++
			}
		case "a":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Adding..."
			return m, addItemCmd(m.menu[m.selectedItem])
		case "enter":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Running..."
			return m, runScenarioCmd(m.scenarios[m.selectedScn].Name)
		}
	case actionResult:
		m.busy = false
		m.status = msg.status
		if msg.cartSummary != "" {
			m.cartSummary = msg.cartSummary
		}
	}
	return m, nil
}

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "mj-checkout CLI")
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Menu (a to add selected):")
	for i, e := range m.menu {
		marker := " "
		if i == m.selectedItem {
			marker = ">"
		}
		fmt.Fprintf(b, " %s %s - Rp %d\n", marker, e.Name, e.Price)
	}
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Scenarios (use left/right):")
	for i, scn := range m.scenarios {
		marker := " "
		if i == m.selectedScn {
			marker = "*"
		}
		fmt.Fprintf(b, " %s %s - %s\n", marker, scn.Name, scn.Description)
	}
	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Status: %s\n", m.status)
	if m.cartSummary != "" {
		fmt.Fprintf(b, "Cart: %s\n", m.cartSummary)
	}
	fmt.Fprintln(b, "\nControls: up/down select item, a add to cart, left/right select scenario, enter to run, q to quit")
	return b.String()
}

type actionResult struct {
	status      string
	cartSummary string
}

func addItemCmd(e menuEntry) tea.Cmd {
	return func() tea.Msg {
		baseURL := getenv("CHECKOUT_BASE_URL", "http://localhost:8080")
		body := map[string]any{
			"item":     map[string]any{"menu_id": e.ID, "menu_name": e.Name, "price": e.Price},
			"quantity": 1,
		}
		resp, err := postJSON(baseURL+"/cart/items", body, http.StatusOK)
		if err != nil {
			return actionResult{status: fmt.Sprintf("Add failed: %v", err)}
		}
		var out struct {
			Total int64 `json:"total"`
		}
		_ = json.Unmarshal([]byte(resp), &out)
		return actionResult{
			status:      fmt.Sprintf("Added %s", e.Name),
			cartSummary: fmt.Sprintf("subtotal Rp %d", out.Total),
		}
	}
}

func runScenarioCmd(scn string) tea.Cmd {
	return func() tea.Msg {
		baseURL := getenv("CHECKOUT_BASE_URL", "http://localhost:8080")
		status, err := runScenario(baseURL, scn)
		if err != nil {
			return actionResult{status: fmt.Sprintf("Scenario failed: %v", err)}
		}
		return actionResult{status: status}
	}
}

// runScenario walks the whole flow: quote shipping, submit the order,
// then fire the chosen payment callback.
func runScenario(baseURL, scn string) (string, error) {
	if _, err := postJSON(baseURL+"/shipping/quote",
		map[string]any{"destination": "Jl. Sudirman No. 123, Jakarta Selatan"}, http.StatusOK); err != nil {
		return "", fmt.Errorf("quote: %w", err)
	}

	resp, err := postJSON(baseURL+"/checkout", map[string]any{"address_id": "addr-1"}, http.StatusOK)
	if err != nil {
		return "", fmt.Errorf("checkout: %w", err)
	}
	var session struct {
		OrderID string `json:"order_id"`
	}
	_ = json.Unmarshal([]byte(resp), &session)

	resp, err = postJSON(baseURL+"/payment/callback",
		map[string]any{"result": scn, "order_id": session.OrderID}, http.StatusOK)
	if err != nil {
		return "", fmt.Errorf("payment callback: %w", err)
	}
	var outcome struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal([]byte(resp), &outcome)

	return fmt.Sprintf("Order %s finished as %s", session.OrderID, outcome.Status), nil
}

func postJSON(url string, payload any, wantStatus int) (string, error) {
	data, _ := json.Marshal(payload)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}

func main() {
	runCmd := flag.String("run", "", "run scenario: success|pending|error|close")
	flag.Parse()

	if *runCmd != "" {
		baseURL := getenv("CHECKOUT_BASE_URL", "http://localhost:8080")
		// Seed one line so the scenario has something to check out.
		if _, err := postJSON(baseURL+"/cart/items", map[string]any{
			"item":     map[string]any{"menu_id": "menu-1", "menu_name": "Nasi Goreng Spesial", "price": 35000},
			"quantity": 2,
		}, http.StatusOK); err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
		status, err := runScenario(baseURL, *runCmd)
		if err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
		fmt.Println(status)
		return
	}

	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

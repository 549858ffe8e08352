package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/orchestrate/internal/domain"
	"github.com/yourorg/orchestrate/internal/repository"
	"github.com/yourorg/orchestrate/pkg/config"
	"github.com/yourorg/orchestrate/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "booking":
		handleBooking(args)
	case "task":
		handleTask(args)
	case "project":
		handleProject(args)
	case "admin":
		handleAdmin(args)
	case "seed":
		seed(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: orchestrate auth <register|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleBooking(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: orchestrate booking <list|rooms|create|delete>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listBookings(args[1:])
	case "rooms":
		listRooms(args[1:])
	case "create":
		createBooking(args[1:])
	case "delete":
		deleteBooking(args[1:])
	default:
		fmt.Printf("unknown booking command: %s\n", subCmd)
	}
}

func handleTask(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: orchestrate task <list|workload>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listTasks(args[1:])
	case "workload":
		showWorkload(args[1:])
	default:
		fmt.Printf("unknown task command: %s\n", subCmd)
	}
}

func handleProject(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: orchestrate project <list>")
		return
	}

	switch args[0] {
	case "list":
		listProjects(args[1:])
	default:
		fmt.Printf("unknown project command: %s\n", args[0])
	}
}

func handleAdmin(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: orchestrate admin <users>")
		return
	}

	switch args[0] {
	case "users":
		listUsers(args[1:])
	default:
		fmt.Printf("unknown admin command: %s\n", args[0])
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password")
	role := fs.String("role", "", "role (default DEVELOPER)")

	fs.Parse(args)

	if *email == "" || *name == "" || *password == "" {
		fmt.Println("Error: email, name, and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"email":    *email,
		"name":     *name,
		"password": *password,
	}
	if *role != "" {
		payload["role"] = *role
	}

	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ User registered: %s\n", *email)
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result)
	}
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *email)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// Booking commands
func listBookings(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	date := fs.String("date", "", "filter by day (YYYY-MM-DD)")
	fs.Parse(args)

	url := getAPIURL() + "/bookings"
	if *date != "" {
		url += "?date=" + *date
	}

	req, _ := http.NewRequest("GET", url, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var bookings []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&bookings)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROOM\tTITLE\tSTART\tEND")
	for _, b := range bookings {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", b["id"], b["roomId"], b["title"], b["startTime"], b["endTime"])
	}
	w.Flush()
}

func listRooms(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/bookings/rooms", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var rooms []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&rooms)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCAPACITY")
	for _, r := range rooms {
		fmt.Fprintf(w, "%v\t%v\t%v\n", r["id"], r["name"], r["capacity"])
	}
	w.Flush()
}

func createBooking(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	roomID := fs.String("room", "", "room id")
	title := fs.String("title", "", "booking title")
	start := fs.String("start", "", "start time (RFC3339)")
	end := fs.String("end", "", "end time (RFC3339)")
	fs.Parse(args)

	if *roomID == "" || *title == "" || *start == "" || *end == "" {
		fmt.Println("Error: room, title, start, and end are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"roomId":    *roomID,
		"title":     *title,
		"startTime": *start,
		"endTime":   *end,
	}
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/bookings", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Booking created: %v\n", result["id"])
	} else {
		fmt.Printf("✗ Booking failed: %v\n", result)
	}
}

func deleteBooking(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: orchestrate booking delete <booking-id>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/bookings/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 200 {
		fmt.Println("✓ Booking deleted")
	} else {
		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		fmt.Printf("✗ Delete failed: %v\n", result)
	}
}

// Task commands
func listTasks(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", "", "filter by status")
	project := fs.String("project", "", "filter by project id")
	fs.Parse(args)

	url := getAPIURL() + "/tasks"
	sep := "?"
	if *status != "" {
		url += sep + "status=" + *status
		sep = "&"
	}
	if *project != "" {
		url += sep + "projectId=" + *project
	}

	req, _ := http.NewRequest("GET", url, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var tasks []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&tasks)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY")
	for _, t := range tasks {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", t["id"], t["title"], t["status"], t["priority"])
	}
	w.Flush()
}

func showWorkload(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/tasks/workload", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var workload []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&workload)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEVELOPER\tACTIVE\tEST. HOURS\tACT. HOURS\tINTENSITY")
	for _, d := range workload {
		name := ""
		if u, ok := d["user"].(map[string]interface{}); ok {
			name, _ = u["name"].(string)
		}
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
			name, d["activeTasksCount"], d["estimatedHoursTotal"], d["actualHoursTotal"], d["workloadIntensity"])
	}
	w.Flush()
}

// Project commands
func listProjects(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/projects", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var projects []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&projects)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tTASKS\tMEMBERS")
	for _, p := range projects {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", p["id"], p["name"], p["status"], p["taskCount"], p["memberCount"])
	}
	w.Flush()
}

// Admin commands
func listUsers(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/users", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var users []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&users)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tSTATUS")
	for _, u := range users {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", u["id"], u["name"], u["email"], u["role"], u["status"])
	}
	w.Flush()
}

// seed populates a development database with demo users, rooms and
// projects. It talks to Postgres directly so it works before the first
// admin exists.
func seed(args []string) {
	_ = args

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	fmt.Println("Start seeding...")

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	userRepo := repository.NewPostgresUserRepository(pool.GetDB(), nil)
	roomRepo := repository.NewPostgresRoomRepository(pool.GetDB(), nil)
	projectRepo := repository.NewPostgresProjectRepository(pool.GetDB(), nil)

	users := []*domain.User{
		{Name: "Admin User", Email: "admin@orchestrate.com", Role: domain.RoleAdmin},
		{Name: "Project Manager", Email: "pm@orchestrate.com", Role: domain.RoleProjectManager},
		{Name: "John Developer", Email: "dev1@orchestrate.com", Role: domain.RoleDeveloper},
		{Name: "Jane Coder", Email: "dev2@orchestrate.com", Role: domain.RoleDeveloper},
		{Name: "Staff Member", Email: "staff@orchestrate.com", Role: domain.RoleStaff},
	}
	for _, u := range users {
		u.ID = uuid.NewString()
		u.PasswordHash = string(hash)
		u.Status = domain.UserActive
		if err := userRepo.Create(ctx, u); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				fmt.Printf("  user %s already exists, skipping\n", u.Email)
				continue
			}
			fmt.Fprintf(os.Stderr, "failed to seed user %s: %v\n", u.Email, err)
			os.Exit(1)
		}
		fmt.Printf("  created user %s (%s)\n", u.Email, u.Role)
	}

	rooms := []*domain.Room{
		{ID: uuid.NewString(), Name: "Boardroom A", Capacity: 12},
		{ID: uuid.NewString(), Name: "Boardroom B", Capacity: 8},
	}
	for _, r := range rooms {
		if err := roomRepo.Insert(ctx, r); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed room %s: %v\n", r.Name, err)
			os.Exit(1)
		}
		fmt.Printf("  created room %s\n", r.Name)
	}

	projects := []*domain.Project{
		{
			ID:          uuid.NewString(),
			Name:        "Orchestrate System",
			Description: "Internal project management and booking system",
			Status:      domain.ProjectActive,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Zenith CRM",
			Description: "Customer relationship management for Zenith Corp",
			Status:      domain.ProjectActive,
		},
	}
	for _, p := range projects {
		if err := projectRepo.Create(ctx, p); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed project %s: %v\n", p.Name, err)
			os.Exit(1)
		}
		fmt.Printf("  created project %s\n", p.Name)
	}

	fmt.Println("Seeding finished.")
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("ORCHESTRATE_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.orchestrate/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.orchestrate", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`Orchestrate CLI

Usage:
  orchestrate <command> [options]

Commands:
  auth       User authentication (register, login, logout, who)
  booking    Booking operations (list, rooms, create, delete)
  task       Task operations (list, workload)
  project    Project operations (list)
  admin      Admin operations (users) - admin access required
  seed       Populate a development database with demo data
  help       Show this help message

Environment Variables:
  ORCHESTRATE_API    API endpoint (default: http://localhost:8080/api)

Examples:
  orchestrate auth login -email admin@orchestrate.com -password password123
  orchestrate booking list -date 2025-06-01
  orchestrate task workload
  orchestrate seed
`)
}

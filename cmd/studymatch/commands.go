package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/studymatch/internal/config"
)

// splitList turns a comma-separated flag into trimmed, non-empty items.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- student ---

type studentView struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Email               string   `json:"email"`
	AcademicLevel       string   `json:"academic_level"`
	Subjects            []string `json:"subjects"`
	PreferredStudyTimes []string `json:"preferred_study_times"`
	LearningStyle       string   `json:"learning_style"`
}

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage student profiles",
}

var studentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a student",
	Long: `Register a student.

Examples:
  studymatch student add --name "Ada" --email ada@example.com \
    --subjects Mathematics,Physics --times Evening --level undergraduate --style visual`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		if name == "" || email == "" {
			return fmt.Errorf("--name and --email are required")
		}
		subjects, _ := cmd.Flags().GetString("subjects")
		times, _ := cmd.Flags().GetString("times")
		level, _ := cmd.Flags().GetString("level")
		style, _ := cmd.Flags().GetString("style")
		goals, _ := cmd.Flags().GetString("goals")
		avatar, _ := cmd.Flags().GetString("avatar")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		created, err := addStudent(cmd.Context(), client, map[string]any{
			"name":                  name,
			"email":                 email,
			"avatar":                avatar,
			"academic_level":        level,
			"subjects":              splitList(subjects),
			"preferred_study_times": splitList(times),
			"learning_style":        style,
			"study_goals":           goals,
		})
		if err != nil {
			return err
		}
		printSuccess("Registered %s (%s)", created.Name, created.ID)
		return nil
	},
}

func addStudent(ctx context.Context, client *apiClient, body map[string]any) (studentView, error) {
	resp, err := client.post(ctx, "/students", body)
	if err != nil {
		return studentView{}, err
	}
	var created studentView
	err = decodeJSON(resp, &created)
	return created, err
}

var studentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a student profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/students/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		var st any
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}
		return printJSON(st)
	},
}

var studentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered students",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return listStudents(cmd.Context(), client, limit, offset)
	},
}

func listStudents(ctx context.Context, client *apiClient, limit, offset int) error {
	resp, err := client.get(ctx, fmt.Sprintf("/students?limit=%d&offset=%d", limit, offset))
	if err != nil {
		return err
	}
	var students []studentView
	if err := decodeJSON(resp, &students); err != nil {
		return err
	}
	if len(students) == 0 {
		fmt.Fprintln(stdout, "No students found.")
		return nil
	}
	for _, st := range students {
		fmt.Fprintf(stdout, "%s  %s <%s>  %s\n",
			colorize(colorCyan, shortID(st.ID)),
			st.Name,
			st.Email,
			joinOrDash(st.Subjects),
		)
	}
	return nil
}

var studentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a student and their memberships",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/students/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Deleted student %s", args[0])
		return nil
	},
}

func init() {
	studentAddCmd.Flags().String("name", "", "display name")
	studentAddCmd.Flags().String("email", "", "unique email address")
	studentAddCmd.Flags().String("avatar", "", "avatar URL")
	studentAddCmd.Flags().String("subjects", "", "comma-separated subjects")
	studentAddCmd.Flags().String("times", "", "comma-separated preferred study times")
	studentAddCmd.Flags().String("level", "", "academic level")
	studentAddCmd.Flags().String("style", "", "learning style")
	studentAddCmd.Flags().String("goals", "", "free-text study goals")
	studentListCmd.Flags().Int("limit", 50, "maximum number of students to list")
	studentListCmd.Flags().Int("offset", 0, "number of students to skip")

	studentCmd.AddCommand(studentAddCmd)
	studentCmd.AddCommand(studentShowCmd)
	studentCmd.AddCommand(studentListCmd)
	studentCmd.AddCommand(studentDeleteCmd)
}

// --- match / recommend / history ---

type partnerView struct {
	StudentID       string   `json:"student_id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Score           float64  `json:"score"`
	MatchedSubjects []string `json:"matched_subjects"`
}

var matchCmd = &cobra.Command{
	Use:   "match <student-id>",
	Short: "Find the most compatible study partners for a student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return showMatches(cmd.Context(), client, args[0])
	},
}

func showMatches(ctx context.Context, client *apiClient, id string) error {
	resp, err := client.get(ctx, "/students/"+url.PathEscape(id)+"/matches")
	if err != nil {
		return err
	}
	var matches []partnerView
	if err := decodeJSON(resp, &matches); err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Fprintln(stdout, "No compatible partners found.")
		return nil
	}
	for i, m := range matches {
		fmt.Fprintf(stdout, "%d. %s <%s>\n", i+1, colorize(colorBold, m.Name), m.Email)
		fmt.Fprintf(stdout, "   %s  shared: %s\n", scoreBar(m.Score), joinOrDash(m.MatchedSubjects))
	}
	return nil
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <student-id>",
	Short: "Recommend study groups and resources for a student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return showRecommendations(cmd.Context(), client, args[0])
	},
}

func showRecommendations(ctx context.Context, client *apiClient, id string) error {
	resp, err := client.get(ctx, "/students/"+url.PathEscape(id)+"/recommendations")
	if err != nil {
		return err
	}
	var recs struct {
		Groups []struct {
			ID        string  `json:"id"`
			Title     string  `json:"title"`
			Subject   string  `json:"subject"`
			GroupType string  `json:"group_type"`
			Score     float64 `json:"score"`
		} `json:"groups"`
		Resources []struct {
			ID            string  `json:"id"`
			Title         string  `json:"title"`
			Type          string  `json:"type"`
			ContentURL    string  `json:"content_url"`
			Score         float64 `json:"score"`
			AverageRating float64 `json:"average_rating"`
			RatingCount   int     `json:"rating_count"`
		} `json:"resources"`
	}
	if err := decodeJSON(resp, &recs); err != nil {
		return err
	}

	fmt.Fprintln(stdout, colorize(colorBold, "Study groups"))
	if len(recs.Groups) == 0 {
		fmt.Fprintln(stdout, "  none")
	}
	for _, g := range recs.Groups {
		fmt.Fprintf(stdout, "  %s  %s (%s, %s)\n", scoreBar(g.Score), g.Title, g.Subject, g.GroupType)
	}

	fmt.Fprintln(stdout, colorize(colorBold, "Resources"))
	if len(recs.Resources) == 0 {
		fmt.Fprintln(stdout, "  none")
	}
	for _, r := range recs.Resources {
		rating := "unrated"
		if r.RatingCount > 0 {
			rating = fmt.Sprintf("%.1f/5 from %d", r.AverageRating, r.RatingCount)
		}
		fmt.Fprintf(stdout, "  %s  [%s] %s (%s)\n      %s\n", scoreBar(r.Score), r.Type, r.Title, rating, r.ContentURL)
	}
	return nil
}

var historyCmd = &cobra.Command{
	Use:   "history <student-id>",
	Short: "Show past matches for a student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/students/%s/history?limit=%d", url.PathEscape(args[0]), limit))
		if err != nil {
			return err
		}
		var entries []struct {
			ID                 string   `json:"id"`
			StudentB           string   `json:"student_b"`
			CompatibilityScore float64  `json:"compatibility_score"`
			MatchedSubjects    []string `json:"matched_subjects"`
			MatchedAt          string   `json:"matched_at"`
			Feedback           string   `json:"feedback"`
		}
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(stdout, "No match history.")
			return nil
		}
		for _, e := range entries {
			feedback := e.Feedback
			if feedback == "" {
				feedback = "-"
			}
			fmt.Fprintf(stdout, "%s  %s  %s  %.4f  %s  feedback: %s\n",
				colorize(colorCyan, shortID(e.ID)), e.MatchedAt, shortID(e.StudentB),
				e.CompatibilityScore, joinOrDash(e.MatchedSubjects), feedback)
		}
		return nil
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <history-id> <positive|neutral|negative>",
	Short: "Record feedback on a past match",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.patch(cmd.Context(), "/history/"+url.PathEscape(args[0]), map[string]string{"feedback": args[1]})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Recorded %s feedback", args[1])
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyCmd.AddCommand(feedbackCmd)
}

// --- group ---

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage study groups",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a study group",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		subject, _ := cmd.Flags().GetString("subject")
		if title == "" || subject == "" {
			return fmt.Errorf("--title and --subject are required")
		}
		level, _ := cmd.Flags().GetString("level")
		meeting, _ := cmd.Flags().GetString("meeting-time")
		groupType, _ := cmd.Flags().GetString("type")
		desc, _ := cmd.Flags().GetString("description")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/groups", map[string]any{
			"title":          title,
			"description":    desc,
			"subject":        subject,
			"academic_level": level,
			"meeting_time":   meeting,
			"group_type":     groupType,
		})
		if err != nil {
			return err
		}
		var created struct {
			ID string `json:"id"`
		}
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}
		printSuccess("Created group %s", created.ID)
		return nil
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List study groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		level, _ := cmd.Flags().GetString("level")

		q := url.Values{}
		if subject != "" {
			q.Set("subject", subject)
		}
		if level != "" {
			q.Set("academic_level", level)
		}
		path := "/groups"
		if len(q) > 0 {
			path += "?" + q.Encode()
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}
		var groups []struct {
			ID            string `json:"id"`
			Title         string `json:"title"`
			Subject       string `json:"subject"`
			AcademicLevel string `json:"academic_level"`
			MeetingTime   string `json:"meeting_time"`
			GroupType     string `json:"group_type"`
		}
		if err := decodeJSON(resp, &groups); err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Fprintln(stdout, "No groups found.")
			return nil
		}
		for _, g := range groups {
			fmt.Fprintf(stdout, "%s  %s  %s  %s  %s\n",
				colorize(colorCyan, shortID(g.ID)), g.Title, g.Subject, g.GroupType, g.MeetingTime)
		}
		return nil
	},
}

func membershipCommand(use, short, action, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <group-id> <student-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := client.post(cmd.Context(), "/groups/"+url.PathEscape(args[0])+"/"+action, map[string]string{"student_id": args[1]})
			if err != nil {
				return err
			}
			if err := decodeJSON(resp, nil); err != nil {
				return err
			}
			printSuccess("%s %s group %s", args[1], verb, args[0])
			return nil
		},
	}
}

func init() {
	groupCreateCmd.Flags().String("title", "", "group title")
	groupCreateCmd.Flags().String("subject", "", "subject studied")
	groupCreateCmd.Flags().String("level", "", "academic level")
	groupCreateCmd.Flags().String("meeting-time", "", "when the group meets")
	groupCreateCmd.Flags().String("type", "", "Virtual or In-Person (default Virtual)")
	groupCreateCmd.Flags().String("description", "", "free-text description")
	groupListCmd.Flags().String("subject", "", "only groups for this subject")
	groupListCmd.Flags().String("level", "", "only groups at this academic level")

	groupCmd.AddCommand(groupCreateCmd)
	groupCmd.AddCommand(groupListCmd)
	groupCmd.AddCommand(membershipCommand("join", "Add a student to a group", "join", "joined"))
	groupCmd.AddCommand(membershipCommand("leave", "Remove a student from a group", "leave", "left"))
	groupRateCmd.Flags().String("comments", "", "free-text comments")
	groupCmd.AddCommand(groupRateCmd)
	groupCmd.AddCommand(groupAvailabilityCmd)
}

var groupRateCmd = &cobra.Command{
	Use:   "rate <group-id> <student-id> <1-5>",
	Short: "Rate a study group; rating again replaces the earlier rating",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, err := strconv.Atoi(args[2])
		if err != nil || rating < 1 || rating > 5 {
			return fmt.Errorf("rating must be a number from 1 to 5, got %q", args[2])
		}
		comments, _ := cmd.Flags().GetString("comments")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/groups/"+url.PathEscape(args[0])+"/feedback", map[string]any{
			"student_id": args[1],
			"rating":     rating,
			"comments":   comments,
		})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("%s rated group %s %d/5", args[1], args[0], rating)
		return nil
	},
}

var groupAvailabilityCmd = &cobra.Command{
	Use:   "availability <group-id>",
	Short: "Show when group members are free at the same time",
	Long: `Show when group members are free at the same time.

Only preferred study times written as "<Day> HH:MM-HH:MM" (for example
"Monday 18:00-20:00") take part; labels such as "Evening" are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/groups/"+url.PathEscape(args[0])+"/availability")
		if err != nil {
			return err
		}
		var windows []struct {
			Day     string   `json:"day"`
			Start   string   `json:"start_time"`
			End     string   `json:"end_time"`
			Members []string `json:"members"`
		}
		if err := decodeJSON(resp, &windows); err != nil {
			return err
		}
		if len(windows) == 0 {
			fmt.Fprintln(stdout, "No common availability found.")
			return nil
		}
		for _, w := range windows {
			fmt.Fprintf(stdout, "%-9s %s-%s  %s\n", w.Day, w.Start, w.End, strings.Join(w.Members, ", "))
		}
		return nil
	},
}

// --- request ---

type requestParty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type requestView struct {
	ID        string       `json:"id"`
	Status    string       `json:"status"`
	Sender    requestParty `json:"sender"`
	Receiver  requestParty `json:"receiver"`
	CreatedAt string       `json:"created_at"`
}

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Send and answer study-partner requests",
}

var requestSendCmd = &cobra.Command{
	Use:   "send <sender-id> <receiver-id>",
	Short: "Ask another student to study together",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/requests", map[string]string{
			"sender_id":   args[0],
			"receiver_id": args[1],
		})
		if err != nil {
			return err
		}
		var created requestView
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}
		printSuccess("Sent request %s to %s", created.ID, created.Receiver.Name)
		return nil
	},
}

var requestListCmd = &cobra.Command{
	Use:   "list <student-id>",
	Short: "List pending requests a student sent or received",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/students/"+url.PathEscape(args[0])+"/requests")
		if err != nil {
			return err
		}
		var reqs []requestView
		if err := decodeJSON(resp, &reqs); err != nil {
			return err
		}
		if len(reqs) == 0 {
			fmt.Fprintln(stdout, "No pending requests.")
			return nil
		}
		for _, r := range reqs {
			direction := "from " + r.Sender.Name
			if r.Sender.ID == args[0] {
				direction = "to " + r.Receiver.Name
			}
			fmt.Fprintf(stdout, "%s  %s  %s\n", colorize(colorCyan, r.ID), direction, r.CreatedAt)
		}
		return nil
	},
}

func respondCommand(use, short, status string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <request-id> <student-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := client.post(cmd.Context(), "/requests/"+url.PathEscape(args[0])+"/respond", map[string]string{
				"student_id": args[1],
				"status":     status,
			})
			if err != nil {
				return err
			}
			var answered requestView
			if err := decodeJSON(resp, &answered); err != nil {
				return err
			}
			printSuccess("Request from %s %s", answered.Sender.Name, answered.Status)
			return nil
		},
	}
}

func init() {
	requestCmd.AddCommand(requestSendCmd)
	requestCmd.AddCommand(requestListCmd)
	requestCmd.AddCommand(respondCommand("approve", "Approve a request you received", "approved"))
	requestCmd.AddCommand(respondCommand("reject", "Reject a request you received", "rejected"))
}

// --- resource ---

var resourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Manage learning resources",
}

var resourceAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a learning resource",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		link, _ := cmd.Flags().GetString("url")
		typ, _ := cmd.Flags().GetString("type")
		if title == "" || link == "" || typ == "" {
			return fmt.Errorf("--title, --url and --type are required")
		}
		tags, _ := cmd.Flags().GetString("tags")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		desc, _ := cmd.Flags().GetString("description")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/resources", map[string]any{
			"title":            title,
			"content_url":      link,
			"type":             typ,
			"subject_tags":     splitList(tags),
			"difficulty_level": difficulty,
			"description":      desc,
		})
		if err != nil {
			return err
		}
		var created struct {
			ID string `json:"id"`
		}
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}
		printSuccess("Added resource %s", created.ID)
		return nil
	},
}

var resourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learning resources with their ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/resources")
		if err != nil {
			return err
		}
		var resources []struct {
			ID            string   `json:"id"`
			Title         string   `json:"title"`
			Type          string   `json:"type"`
			SubjectTags   []string `json:"subject_tags"`
			AverageRating float64  `json:"average_rating"`
			RatingCount   int      `json:"rating_count"`
		}
		if err := decodeJSON(resp, &resources); err != nil {
			return err
		}
		if len(resources) == 0 {
			fmt.Fprintln(stdout, "No resources found.")
			return nil
		}
		for _, r := range resources {
			fmt.Fprintf(stdout, "%s  [%s] %s  %s  %.1f (%d)\n",
				colorize(colorCyan, shortID(r.ID)), r.Type, r.Title, joinOrDash(r.SubjectTags), r.AverageRating, r.RatingCount)
		}
		return nil
	},
}

var resourceRateCmd = &cobra.Command{
	Use:   "rate <resource-id> <student-id> <1-5>",
	Short: "Rate a resource on behalf of a student",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rating int
		if _, err := fmt.Sscanf(args[2], "%d", &rating); err != nil {
			return fmt.Errorf("rating must be a number from 1 to 5")
		}
		comments, _ := cmd.Flags().GetString("comments")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/resources/"+url.PathEscape(args[0])+"/ratings", map[string]any{
			"student_id": args[1],
			"rating":     rating,
			"comments":   comments,
		})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Rated %s %d/5", args[0], rating)
		return nil
	},
}

func init() {
	resourceAddCmd.Flags().String("title", "", "resource title")
	resourceAddCmd.Flags().String("url", "", "content URL")
	resourceAddCmd.Flags().String("type", "", "Video, Article or Quiz")
	resourceAddCmd.Flags().String("tags", "", "comma-separated subject tags")
	resourceAddCmd.Flags().String("difficulty", "", "difficulty level")
	resourceAddCmd.Flags().String("description", "", "free-text description")
	resourceRateCmd.Flags().String("comments", "", "optional comments")

	resourceCmd.AddCommand(resourceAddCmd)
	resourceCmd.AddCommand(resourceListCmd)
	resourceCmd.AddCommand(resourceRateCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(stdout, "  %s = %s  (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored configuration value so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}

package render

import (
	"fmt"
	"hash/fnv"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/consts"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
)

// Context is the data handed to the report template
type Context struct {
	Sections   []Section
	Timespan   string
	Today      string
	WeekNumber int
	Author     string
	Verbs      []string
	Projects   []string
	Images     []File
	Videos     []File

	// Report is the rendered report body, filled in by the Engine
	Report string
}

// Section is a report section with the items assigned to it directly and its projects
type Section struct {
	Key      string
	Title    string
	Emoji    string
	News     []Item
	Projects []Project
}

// Project is a project block inside a section
type Project struct {
	Key         string
	Title       string
	Website     string
	Description string
	News        []Item
}

// Item is one news entry as it appears in the report
type Item struct {
	ID                  string
	ReporterID          string
	ReporterDisplayName string
	Verb                string
	Message             string
	Quote               string
	ThirdParty          bool
	Timestamp           time.Time
	Images              []File
	Videos              []File
}

// File is an image or video to download alongside the report
type File struct {
	EventID  string
	Filename string
	URL      string
}

// findings collects the warnings and notes of one render
type findings struct {
	warnings []string
	notes    []string
}

func (f *findings) warn(format string, args ...any) {
	f.warnings = append(f.warnings, fmt.Sprintf(format, args...))
}

func (f *findings) note(format string, args ...any) {
	f.notes = append(f.notes, fmt.Sprintf(format, args...))
}

// placement is where an approved item ends up
type placement struct {
	section string
	project string
}

// buildContext groups the approved items of snap by section and project.
// Sections and projects are ordered by key, items keep submission order.
func buildContext(bot *config.Bot, items []entities.NewsItem, author string, now time.Time) (Context, findings) {
	var f findings

	sort.SliceStable(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })

	sections := make(map[string]*Section)
	projects := make(map[string]map[string]*Project)
	projectTitles := make(map[string]struct{})

	ctx := Context{
		Today:      now.Format("2006-01-02"),
		Timespan:   Timespan(now),
		WeekNumber: weekNumber(now),
		Author:     author,
		Verbs:      bot.Verbs,
	}

	skipped := 0
	for _, item := range items {
		link := fmt.Sprintf(consts.ReportingRoomLink, bot.ReportingRoomID, item.ID)

		if !item.Approved {
			skipped++
			continue
		}

		p, ok := place(bot, item, link, &f)
		if !ok {
			continue
		}

		section, ok := bot.SectionByKey(p.section)
		if !ok {
			f.warn("[%s] News entry by %s is assigned to the unknown section “%s”, it'll not appear in the rendered markdown!", link, item.ReporterDisplayName, p.section)
			continue
		}

		rs, exists := sections[section.Key]
		if !exists {
			rs = &Section{Key: section.Key, Title: section.Title, Emoji: section.Emoji}
			sections[section.Key] = rs
			projects[section.Key] = make(map[string]*Project)
		}

		ri := newItem(bot, item)
		ctx.Images = append(ctx.Images, ri.Images...)
		ctx.Videos = append(ctx.Videos, ri.Videos...)

		if p.project == "" {
			rs.News = append(rs.News, ri)
			continue
		}

		project, ok := bot.ProjectByKey(p.project)
		if !ok {
			f.warn("[%s] News entry by %s has the unknown project “%s”, it'll appear directly in the section.", link, item.ReporterDisplayName, p.project)
			rs.News = append(rs.News, ri)
			continue
		}

		rp, exists := projects[section.Key][project.Key]
		if !exists {
			rp = &Project{
				Key:         project.Key,
				Title:       project.Title,
				Website:     project.Website,
				Description: projectDescription(project),
			}
			projects[section.Key][project.Key] = rp
		}
		rp.News = append(rp.News, ri)
		projectTitles[project.Title] = struct{}{}
	}

	if skipped > 0 {
		f.note("%d news entries are not approved and were skipped.", skipped)
	}

	keys := make([]string, 0, len(sections))
	for key := range sections {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rs := sections[key]

		projectKeys := make([]string, 0, len(projects[key]))
		for pk := range projects[key] {
			projectKeys = append(projectKeys, pk)
		}
		sort.Strings(projectKeys)
		for _, pk := range projectKeys {
			rs.Projects = append(rs.Projects, *projects[key][pk])
		}

		ctx.Sections = append(ctx.Sections, *rs)
	}

	for title := range projectTitles {
		ctx.Projects = append(ctx.Projects, title)
	}
	sort.Strings(ctx.Projects)

	return ctx, f
}

// place decides the section and project of an approved item
func place(bot *config.Bot, item entities.NewsItem, link string, f *findings) (placement, bool) {
	switch {
	case item.ProjectKey != "":
		owner := bot.ProjectSection(item.ProjectKey)
		section := item.SectionKey
		if section == "" {
			section = owner
		}
		if section != owner {
			f.note("[%s] News entry by %s gets added to the “%s” section, which is not the default section for this project.", link, item.ReporterDisplayName, section)
		}
		return placement{section: section, project: item.ProjectKey}, true

	case item.SectionKey != "":
		f.note("[%s] News entry by %s doesn't have project information, it'll appear directly in the section without any project description.", link, item.ReporterDisplayName)
		return placement{section: item.SectionKey}, true

	case item.ThirdParty && bot.ThirdPartySection != "":
		return placement{section: bot.ThirdPartySection}, true

	case bot.UncategorizedSection != "":
		f.note("[%s] News entry by %s doesn't have project/section information, it'll appear in the “%s” section.", link, item.ReporterDisplayName, bot.UncategorizedSection)
		return placement{section: bot.UncategorizedSection}, true

	default:
		f.warn("[%s] News entry by %s doesn't have project/section information, it'll not appear in the rendered markdown!", link, item.ReporterDisplayName)
		return placement{}, false
	}
}

func newItem(bot *config.Bot, item entities.NewsItem) Item {
	return Item{
		ID:                  item.ID,
		ReporterID:          item.ReporterID,
		ReporterDisplayName: item.ReporterDisplayName,
		Verb:                Verb(bot.Verbs, item.ID),
		Message:             item.Message,
		Quote:               Quote(item.Message),
		ThirdParty:          item.ThirdParty,
		Timestamp:           item.Timestamp,
		Images:              files(item.Images),
		Videos:              files(item.Videos),
	}
}

func projectDescription(p config.Project) string {
	link := fmt.Sprintf("[%s](%s)", p.Title, p.Website)
	return strings.ReplaceAll(p.Description, "{{project}}", link)
}

// Verb picks the verb of an item. The choice depends only on the item id.
func Verb(verbs []string, id string) string {
	if len(verbs) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return verbs[h.Sum32()%uint32(len(verbs))]
}

// Quote turns a message into a Markdown block quote. Dash list items become
// star list items.
func Quote(message string) string {
	quoted := "> " + strings.ReplaceAll(strings.TrimSpace(message), "\n", "\n> ")
	return strings.ReplaceAll(quoted, "> -", "> *")
}

// Timespan returns the week ending at now, e.g. "January 02 to January 09"
func Timespan(now time.Time) string {
	start := now.AddDate(0, 0, -7)
	return fmt.Sprintf("%s to %s", start.Format("January 02"), now.Format("January 02"))
}

func weekNumber(now time.Time) int {
	_, week := now.ISOWeek()
	return week
}

// files names media after their content id and original extension so that
// downloads do not collide
func files(refs []entities.MediaRef) []File {
	out := make([]File, 0, len(refs))
	for _, ref := range refs {
		out = append(out, File{
			EventID:  ref.EventID,
			Filename: Filename(ref),
			URL:      ref.URL,
		})
	}
	return out
}

// Filename returns the download name of a media attachment
func Filename(ref entities.MediaRef) string {
	id := path.Base(strings.TrimPrefix(ref.URL, "mxc://"))
	if id == "" || id == "." || id == "/" {
		id = "no-media-id"
	}
	ext := path.Ext(ref.Filename)
	if ext == "" {
		return id
	}
	return id + ext
}

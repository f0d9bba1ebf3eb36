package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/namsan/ministry/internal/models"
	"github.com/namsan/ministry/internal/services"
	"github.com/namsan/ministry/internal/store"
)

const blankMemberRows = 3

type membersVM struct {
	Title   string
	Flash   *Flash
	Members []models.Member
	Blank   []int
	Version string
	Regions []string
	Roles   []string
	Moved   []string
}

func membersView(t *template.Template) *template.Template {
	view := template.Must(t.Clone())
	template.Must(view.ParseFiles("templates/pages/members.tmpl"))
	return view
}

// GET /members
// The roster editor over Record_DB.
func Members(t *template.Template, d *services.Dashboard) http.HandlerFunc {
	view := membersView(t)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("refresh") == "1" {
			d.InvalidateAll()
			http.Redirect(w, r, "/members?ok=refreshed", http.StatusSeeOther)
			return
		}
		members, version, err := d.LoadRoster(r.Context())
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusBadGateway)
			return
		}
		vm := &membersVM{
			Title:   "회원 관리",
			Flash:   MakeFlash(r, "", ""),
			Members: members,
			Blank:   make([]int, blankMemberRows),
			Version: version,
			Regions: services.Regions(members),
			Roles: []string{
				models.RoleMember, models.RoleLeader,
				models.RoleZoneHead, models.RoleStaff,
			},
		}
		render(w, view, "members.tmpl", vm)
	}
}

// POST /members
// Saves roster edits. Zone changes detected against the
// current roster run the reassignment sync before the master rewrite. On a
// stale version nothing is written and the form comes back with the
// submitted values so the editor does not lose their work.
func MembersSave(t *template.Template, d *services.Dashboard) http.HandlerFunc {
	view := membersView(t)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		edited := parseMemberRows(r)
		formVersion := r.FormValue("version")

		current, version, err := d.LoadRoster(ctx)
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusBadGateway)
			return
		}

		rerender := func(msg string) {
			vm := &membersVM{
				Title:   "회원 관리",
				Flash:   &Flash{Kind: "error", Text: msg},
				Members: edited,
				Blank:   make([]int, blankMemberRows),
				Version: version,
				Regions: services.Regions(edited),
				Roles: []string{
					models.RoleMember, models.RoleLeader,
					models.RoleZoneHead, models.RoleStaff,
				},
			}
			render(w, view, "members.tmpl", vm)
		}

		if formVersion != "" && formVersion != version {
			rerender(errText["stale"])
			return
		}

		moved, err := d.SyncRosterChanges(ctx, current, edited)
		if err != nil {
			rerender("구역 동기화 실패: " + err.Error())
			return
		}
		if err := d.SaveRoster(ctx, edited, version); err != nil {
			if errors.Is(err, store.ErrStaleWrite) {
				rerender(errText["stale"])
				return
			}
			rerender("저장 실패: " + err.Error())
			return
		}
		code := "saved"
		if len(moved) > 0 {
			code = "moved"
		}
		http.Redirect(w, r, "/members?ok="+code, http.StatusSeeOther)
	}
}

func parseMemberRows(r *http.Request) []models.Member {
	count, _ := strconv.Atoi(r.FormValue("count"))
	out := make([]models.Member, 0, count)
	for i := 0; i < count; i++ {
		field := func(name string) string {
			return strings.TrimSpace(r.FormValue(fmt.Sprintf("%s.%d", name, i)))
		}
		m := models.Member{
			Name:     field("name"),
			Region:   field("region"),
			Zone:     field("zone"),
			Role:     field("role"),
			Status:   field("status"),
			JoinedOn: field("joined"),
		}
		if m.Name == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

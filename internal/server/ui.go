package server

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/panekit/panekit/internal/manifest"
)

var titleCaser = cases.Title(language.English)

// indexPage renders the navigation demo: one section per manifest group,
// with tab strips or accordion headers wired to the live-update socket.
// Pane fragments come from the manifest verbatim; the client script replays
// mutation messages onto them exactly as the binding layer emitted them.
func indexPage(m *manifest.Manifest, snapshot map[string]bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, pageHead, templ.EscapeString("panekit preview")); err != nil {
			return err
		}

		for i := range m.Groups {
			if err := renderGroup(ctx, w, &m.Groups[i], snapshot); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, pageFoot)
		return err
	})
}

func renderGroup(ctx context.Context, w io.Writer, group *manifest.Group, snapshot map[string]bool) error {
	mode := group.EffectiveMode(manifest.ModeTabs)
	if _, err := fmt.Fprintf(w,
		"<section class=\"group group-%s\" data-group=%q>\n<h2>%s</h2>\n",
		mode, group.Name, templ.EscapeString(titleCaser.String(group.Name)),
	); err != nil {
		return err
	}

	if mode == manifest.ModeTabs {
		if _, err := io.WriteString(w, "<ul class=\"tabs\" role=\"tablist\">\n"); err != nil {
			return err
		}
		for _, pane := range group.Panes {
			if err := renderTab(ctx, w, pane); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</ul>\n"); err != nil {
			return err
		}
	}

	for _, pane := range group.Panes {
		if err := renderPane(ctx, w, mode, pane, snapshot[pane.Key]); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</section>\n")
	return err
}

func renderTab(ctx context.Context, w io.Writer, pane manifest.Pane) error {
	if _, err := fmt.Fprintf(w, "<span id=\"tab-%s\" data-key=%q>", pane.Key, pane.Key); err != nil {
		return err
	}
	if pane.Tab != "" {
		if err := templ.Raw(pane.Tab).Render(ctx, w); err != nil {
			return err
		}
	} else {
		if _, err := io.WriteString(w, templ.EscapeString(titleCaser.String(paneTitle(pane)))); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</span>\n")
	return err
}

func renderPane(ctx context.Context, w io.Writer, mode manifest.Mode, pane manifest.Pane, active bool) error {
	action := "activate"
	if mode != manifest.ModeTabs {
		action = "toggle"
	}

	if mode != manifest.ModeTabs {
		if _, err := fmt.Fprintf(w,
			"<button class=\"header\" data-key=%q data-action=%q>%s</button>\n",
			pane.Key, action, templ.EscapeString(titleCaser.String(paneTitle(pane))),
		); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "<div id=\"pane-%s\" class=\"pane-slot%s\" data-key=%q>",
		pane.Key, activeSuffix(active), pane.Key); err != nil {
		return err
	}
	if err := templ.Raw(pane.Content).Render(ctx, w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</div>\n")
	return err
}

func paneTitle(pane manifest.Pane) string {
	if pane.Title != "" {
		return pane.Title
	}
	return pane.Key
}

func activeSuffix(active bool) string {
	if active {
		return " active"
	}
	return ""
}

const pageHead = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
.tabs { display: flex; gap: .5rem; list-style: none; padding: 0; }
.tabs li { padding: .4rem .8rem; cursor: pointer; border-bottom: 2px solid transparent; }
.tabs li.active { border-color: #0a6cff; }
.pane-slot { display: none; }
.pane-slot.active { display: block; }
.header { display: block; width: 100%%; text-align: left; padding: .4rem; cursor: pointer; }
</style>
</head>
<body>
`

const pageFoot = `<script>
(function () {
  var ws = new WebSocket("ws://" + location.host + "/ws");
  ws.onopen = function () { ws.send(JSON.stringify({type: "resync"})); };
  ws.onmessage = function (ev) {
    var u = JSON.parse(ev.data);
    if (u.type === "snapshot") {
      Object.keys(u.snapshot || {}).forEach(function (key) {
        var slot = document.getElementById("pane-" + key);
        if (slot) slot.classList.toggle("active", u.snapshot[key]);
        var tab = document.getElementById("tab-" + key);
        if (tab) tab.firstElementChild &&
          tab.firstElementChild.classList.toggle("active", u.snapshot[key]);
      });
    } else if (u.type === "mutation" && u.mutation) {
      var target = document.getElementById(u.mutation.element);
      if (!target) return;
      var el = target.firstElementChild || target;
      if (u.mutation.kind === "class-added") el.classList.add(u.mutation.name);
      if (u.mutation.kind === "class-removed") el.classList.remove(u.mutation.name);
      if (u.mutation.kind === "attr-set") el.setAttribute(u.mutation.name, u.mutation.value || "");
      if (u.mutation.name === "active")
        target.classList.toggle("active", u.mutation.kind === "class-added");
    }
  };
  document.body.addEventListener("click", function (ev) {
    var source = ev.target.closest("[data-key]");
    if (!source) return;
    var action = source.getAttribute("data-action") || "activate";
    ws.send(JSON.stringify({
      type: "interaction",
      interaction: {action: action, kind: "key", target: source.getAttribute("data-key")}
    }));
  });
})();
</script>
</body>
</html>
`

package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

func Home(page HomePage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var options strings.Builder
		var descriptions strings.Builder
		for _, mode := range page.Modes {
			options.WriteString(`<option value="` + templ.EscapeString(mode.Value) + `">` + templ.EscapeString(mode.Label) + `</option>`)
			descriptions.WriteString(`<li><strong>` + templ.EscapeString(mode.Label) + `</strong> ` + templ.EscapeString(mode.Description) + `</li>`)
		}
		_, err := io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Music Round</title>
    <link rel="stylesheet" href="`+templ.EscapeString(assetPath("/static/styles.css"))+`"/>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Music Round</span>
        <h1>Name that tune. Beat the clock.</h1>
        <p>Guess the artist and the title from a short preview. Faster answers score more.</p>
        <ul class="modes">`+descriptions.String()+`</ul>
      </header>

      <section class="panel">
        <div>
          <h2>Host a game</h2>
          <p>Pick a mode and share the join code with your players.</p>
        </div>
        <form id="createForm" class="create-form">
          <input name="name" placeholder="Your name" autocomplete="name" required/>
          <select name="mode">`+options.String()+`</select>
          <button type="submit" class="primary">Create game</button>
        </form>
        <div id="createResult" class="result"></div>
      </section>

      <section class="panel">
        <div>
          <h2>Join a game</h2>
          <p>Enter the join code from the host and your display name.</p>
        </div>
        <form id="joinForm" class="join-form">
          <input name="code" placeholder="Join code" autocomplete="off" required/>
          <input name="name" placeholder="Display name" autocomplete="name" required/>
          <button type="submit" class="secondary">Join game</button>
        </form>
        <div id="joinResult" class="result"></div>
      </section>
    </main>

    <script>
      const createForm = document.getElementById("createForm");
      const createResult = document.getElementById("createResult");
      const joinForm = document.getElementById("joinForm");
      const joinResult = document.getElementById("joinResult");

      createForm.addEventListener("submit", async (event) => {
        event.preventDefault();
        createResult.textContent = "Creating game...";
        const res = await fetch("/api/games", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify({
            name: createForm.elements.name.value.trim(),
            mode: createForm.elements.mode.value
          })
        });
        const data = await res.json();
        if (!res.ok) {
          createResult.textContent = data.error || "Failed to create game.";
          return;
        }
        createResult.innerHTML = "";
        const code = document.createElement("p");
        code.textContent = "Join code: " + data.join_code;
        const qr = document.createElement("img");
        qr.src = "/api/games/" + encodeURIComponent(data.game_id) + "/qr.png";
        qr.alt = "Join QR code";
        createResult.append(code, qr);
      });

      const sharedCode = new URLSearchParams(window.location.search).get("code");
      if (sharedCode) {
        joinForm.elements.code.value = sharedCode;
      }

      joinForm.addEventListener("submit", async (event) => {
        event.preventDefault();
        joinResult.textContent = "Joining game...";
        const code = joinForm.elements.code.value.trim();
        const name = joinForm.elements.name.value.trim();
        const res = await fetch("/api/games/" + encodeURIComponent(code) + "/join", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify({ name })
        });
        const data = await res.json();
        if (!res.ok) {
          joinResult.textContent = data.error || "Failed to join game.";
          return;
        }
        joinResult.textContent = "Joined game " + data.game_id + ". Waiting for the host to start.";
      });
    </script>
  </body>
</html>
`)
		return err
	})
}

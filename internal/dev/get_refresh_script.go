package dev

import (
	"fmt"

	"github.com/sjc5/inkwell/internal/common"
)

// GetRefreshScript returns the live reload client for the running dev
// server, or an empty string when no dev server has been started.
func GetRefreshScript() string {
	port := common.InkwellEnv.GetDevServerPort()
	if port == 0 {
		return ""
	}
	mode := "development"
	if common.InkwellEnv.GetIsProduction() {
		mode = "production"
	}
	return "\n<script>\n" + fmt.Sprintf(refreshScriptFmt, port, liveReloadPath, mode) + "\n</script>\n"
}

// changeTypes: "rebuilding", "reload", "failed"
// Element IDs: "__inkwell-rebuilding"
const refreshScriptFmt = `
const scrollYKey = "__inkwell_internal__devScrollY";
const scrollY = localStorage.getItem(scrollYKey);
if (scrollY) {
	setTimeout(() => {
		localStorage.removeItem(scrollYKey);
		console.info("INKWELL DEV: Restoring previous scroll position");
		window.scrollTo({ top: scrollY, behavior: "smooth" })
	}, 150);
}

const wsProtocol = window.location.protocol === "https:" ? "wss://" : "ws://";
const ws = new WebSocket(wsProtocol + window.location.hostname + ":%d" + "%s");

ws.onopen = () => {
	console.info("INKWELL DEV: live reload connected (%s build)");
};

ws.onmessage = (e) => {
	const { changeType, message } = JSON.parse(e.data);
	if (changeType == "rebuilding") {
		console.log("Rebuilding...");
		const el = document.createElement("div");
		el.id = "__inkwell-rebuilding";
		el.innerHTML = "Rebuilding...";
		el.style.display = "flex";
		el.style.position = "fixed";
		el.style.inset = "0";
		el.style.width = "100%%";
		el.style.backgroundColor = "#333a";
		el.style.color = "white";
		el.style.textAlign = "center";
		el.style.padding = "10px";
		el.style.zIndex = "1000";
		el.style.fontSize = "7vw";
		el.style.fontWeight = "bold";
		el.style.textShadow = "2px 2px 2px #000";
		el.style.justifyContent = "center";
		el.style.alignItems = "center";
		el.style.opacity = "0";
		el.style.transition = "opacity 0.05s";
		document.body.appendChild(el);
		setTimeout(() => {
			el.style.opacity = "1";
		}, 10);
	}
	if (changeType == "failed") {
		console.error("INKWELL DEV: rebuild failed:", message);
		const el = document.getElementById("__inkwell-rebuilding");
		if (el) el.remove();
	}
	if (changeType == "reload") {
		const scrollY = window.scrollY;
		if (scrollY > 0) {
			localStorage.setItem(scrollYKey, scrollY);
		}
		window.location.reload();
	}
};

ws.onclose = () => {
	console.log("INKWELL DEV: live reload connection closed");
	setTimeout(() => window.location.reload(), 1000);
};

window.addEventListener("beforeunload", () => {
	ws.onclose = null;
	ws.close();
});
`

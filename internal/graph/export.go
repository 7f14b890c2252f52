package graph

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
)

// Theme selects the exported page palette.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

type palette struct {
	bg, fg, muted, accent, edge string
}

func (t Theme) palette() palette {
	if t == ThemeLight {
		return palette{bg: "#f7f7f5", fg: "#1c1c1c", muted: "#777", accent: "#b0306a", edge: "rgba(0,0,0,0.15)"}
	}
	return palette{bg: "#0d0b14", fg: "#e6e6e6", muted: "#888", accent: "#e0569b", edge: "rgba(255,255,255,0.12)"}
}

// ExportJSON returns the graph as pretty-printed JSON.
func (g Graph) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// ExportDOT returns the graph in Graphviz DOT format, edges sorted by
// distance.
func (g Graph) ExportDOT() string {
	names := make(map[int]string, len(g.Nodes))
	var b strings.Builder
	b.WriteString("graph castgraph {\n")
	b.WriteString("  layout=neato;\n")
	b.WriteString("  node [shape=circle, style=filled, fontsize=10];\n\n")
	for _, n := range g.Nodes {
		names[n.ID] = n.Name
		attrs := fmt.Sprintf("label=%q", n.Name)
		if n.Focal {
			attrs += ", fillcolor=\"#e0569b\", pos=\"0,0!\""
		} else {
			attrs += fmt.Sprintf(", xlabel=\"%d\"", n.Count)
		}
		fmt.Fprintf(&b, "  n%d [%s];\n", n.ID, attrs)
	}

	edges := append([]Edge(nil), g.Edges...)
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Distance < edges[j].Distance })

	b.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&b, "  n%d -- n%d [len=%.2f];\n", e.Source, e.Target, e.Distance/72)
	}
	b.WriteString("}\n")
	return b.String()
}

// ExportHTML renders a self-contained page showing the graph at its current
// positions. The page draws only; it runs no simulation.
func (g Graph) ExportHTML(title string, theme Theme, paintRadius func(Node) float64) string {
	type jsNode struct {
		ID    int     `json:"id"`
		Name  string  `json:"name"`
		Focal bool    `json:"focal"`
		Image string  `json:"image"`
		Count int     `json:"count"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
		R     float64 `json:"r"`
	}

	nodes := make([]jsNode, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		x, y := n.X, n.Y
		if n.Pinned() {
			x, y = *n.FX, *n.FY
		}
		nodes = append(nodes, jsNode{ID: n.ID, Name: n.Name, Focal: n.Focal, Image: n.Image, Count: n.Count, X: x, Y: y, R: paintRadius(n)})
	}
	nodesJSON, _ := json.Marshal(nodes)
	edgesJSON, _ := json.Marshal(g.Edges)
	p := theme.palette()

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
body{background:%s;color:%s;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;overflow:hidden}
canvas{display:block}
#info{position:fixed;top:16px;left:16px;z-index:10;border:1px solid %s;border-radius:12px;padding:16px 20px;font-size:13px;min-width:200px}
#info h2{color:%s;font-size:16px;margin-bottom:8px}
.stat{color:%s;margin:2px 0}
#tooltip{position:fixed;z-index:20;pointer-events:none;display:none;background:%s;border:1px solid %s;border-radius:10px;padding:10px 14px;font-size:12px}
</style>
</head>
<body>
<div id="info">
  <h2>%s</h2>
  <div class="stat"><b id="n-nodes">0</b> co-stars</div>
  <div class="stat">scroll to zoom / drag to pan</div>
</div>
<div id="tooltip"></div>
<canvas id="canvas"></canvas>
<script>
"use strict";
const NODES=%s;
const EDGES=%s;
const ACCENT='%s',EDGE='%s',FG='%s';
document.getElementById('n-nodes').textContent=NODES.length-1;
const byId=new Map(NODES.map(n=>[n.id,n]));
const imgs=new Map();
NODES.forEach(n=>{if(n.image){const i=new Image();i.src=n.image;i.onload=draw;imgs.set(n.id,i)}});
const canvas=document.getElementById('canvas'),ctx=canvas.getContext('2d');
let W,H,cam={x:0,y:0,zoom:1},drag=null;
function resize(){W=canvas.width=window.innerWidth;H=canvas.height=window.innerHeight;draw()}
function toScreen(x,y){return[(x-cam.x)*cam.zoom+W/2,(y-cam.y)*cam.zoom+H/2]}
function toWorld(sx,sy){return[(sx-W/2)/cam.zoom+cam.x,(sy-H/2)/cam.zoom+cam.y]}
function draw(){
  if(!ctx)return;
  ctx.clearRect(0,0,W,H);
  ctx.strokeStyle=EDGE;ctx.lineWidth=1;
  for(const e of EDGES){const a=byId.get(e.source),b=byId.get(e.target);if(!a||!b)continue;
    const[ax,ay]=toScreen(a.x,a.y),[bx,by]=toScreen(b.x,b.y);ctx.beginPath();ctx.moveTo(ax,ay);ctx.lineTo(bx,by);ctx.stroke()}
  for(const n of NODES){const[sx,sy]=toScreen(n.x,n.y),r=n.r*cam.zoom,img=imgs.get(n.id);
    ctx.save();ctx.beginPath();ctx.arc(sx,sy,r,0,Math.PI*2);ctx.closePath();ctx.clip();
    if(img&&img.complete&&img.naturalWidth){ctx.drawImage(img,sx-r,sy-r,r*2,r*2)}else{ctx.fillStyle=ACCENT+'66';ctx.fill()}
    ctx.restore();ctx.beginPath();ctx.arc(sx,sy,r,0,Math.PI*2);ctx.strokeStyle=n.focal?ACCENT:EDGE;ctx.lineWidth=n.focal?3:1;ctx.stroke();
    if(n.focal||cam.zoom>1.4){ctx.fillStyle=FG;ctx.font='11px sans-serif';ctx.textAlign='center';ctx.fillText(n.name,sx,sy+r+12)}}
}
function find(sx,sy){const[wx,wy]=toWorld(sx,sy);
  for(let i=NODES.length-1;i>=0;i--){const n=NODES[i],dx=n.x-wx,dy=n.y-wy;if(dx*dx+dy*dy<(n.r+5)*(n.r+5))return n}return null}
canvas.addEventListener('mousedown',e=>{drag={sx:e.clientX,sy:e.clientY,cx:cam.x,cy:cam.y}});
canvas.addEventListener('mouseup',()=>{drag=null});
canvas.addEventListener('mousemove',e=>{
  if(drag){cam.x=drag.cx-(e.clientX-drag.sx)/cam.zoom;cam.y=drag.cy-(e.clientY-drag.sy)/cam.zoom;draw()}
  const n=find(e.clientX,e.clientY),tt=document.getElementById('tooltip');
  if(n){tt.textContent=n.focal?n.name:n.name+' ('+n.count+' shared)';tt.style.display='block';tt.style.left=(e.clientX+14)+'px';tt.style.top=(e.clientY+14)+'px'}
  else{tt.style.display='none'}
});
canvas.addEventListener('wheel',e=>{e.preventDefault();cam.zoom=Math.max(0.1,Math.min(6,cam.zoom*(e.deltaY>0?0.9:1.1)));draw()},{passive:false});
window.addEventListener('resize',resize);
resize();
</script>
</body>
</html>`,
		html.EscapeString(title),
		p.bg, p.fg, p.edge, p.accent, p.muted, p.bg, p.accent,
		html.EscapeString(title),
		string(nodesJSON), string(edgesJSON),
		p.accent, p.edge, p.fg)
}

package server

import (
	"bytes"
	"html/template"

	"github.com/msalah0e/castgraph/internal/layout"
)

type pageData struct {
	Theme      string
	FocalPaint float64
	MaxPaint   float64
	FocalHit   float64
	MaxHit     float64
	HitBuffer  float64
}

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

func renderIndex(theme string) string {
	var buf bytes.Buffer
	_ = indexTmpl.Execute(&buf, pageData{
		Theme:      theme,
		FocalPaint: layout.FocalPaintRadius,
		MaxPaint:   layout.MaxPaintRadius,
		FocalHit:   layout.FocalHitRadius,
		MaxHit:     layout.MaxHitRadius,
		HitBuffer:  layout.HitBuffer,
	})
	return buf.String()
}

const indexHTML = `<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>castgraph</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
:root{--bg:#0d0b14;--fg:#e6e6e6;--muted:#888;--accent:#e0569b;--panel:rgba(20,16,30,0.92);--edge:rgba(255,255,255,0.12)}
[data-theme=light]{--bg:#f7f7f5;--fg:#1c1c1c;--muted:#777;--accent:#b0306a;--panel:rgba(255,255,255,0.95);--edge:rgba(0,0,0,0.15)}
body{background:var(--bg);color:var(--fg);font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;overflow:hidden}
canvas{display:block}
.panel{position:fixed;z-index:10;background:var(--panel);border:1px solid var(--edge);border-radius:12px;padding:12px 16px;font-size:13px}
#controls{top:16px;left:16px;width:300px}
#controls input{width:100%;padding:6px 10px;border-radius:6px;border:1px solid var(--edge);background:transparent;color:var(--fg)}
#results div{cursor:pointer;padding:4px 0;color:var(--muted)}
#results div:hover{color:var(--accent)}
#range{display:flex;gap:8px;margin-top:8px}
#range input{width:50%}
#status{margin-top:8px;color:var(--muted);font-size:11px}
#details{top:16px;right:16px;width:320px;max-height:80vh;overflow:auto;display:none}
#details h3{color:var(--accent);margin-bottom:8px}
#details li{list-style:none;margin:4px 0}
#details a{color:var(--fg)}
#notice{bottom:16px;left:16px;display:none;color:var(--accent)}
</style>
</head>
<body>
<div id="controls" class="panel">
  <input id="q" placeholder="Search an actor">
  <div id="results"></div>
  <div id="range"><input id="from" type="number" placeholder="from"><input id="to" type="number" placeholder="to"></div>
  <div id="status">pick an actor to start</div>
</div>
<div id="details" class="panel"></div>
<div id="notice" class="panel"></div>
<canvas id="canvas"></canvas>
<script>
"use strict";
const R={focalPaint:{{.FocalPaint}},maxPaint:{{.MaxPaint}},focalHit:{{.FocalHit}},maxHit:{{.MaxHit}},buffer:{{.HitBuffer}}};
const paintR=n=>n.focal?R.focalPaint:Math.min(10+2*n.count,R.maxPaint);
const hitR=n=>(n.focal?R.focalHit:Math.min(4+3*Math.sqrt(n.count),R.maxHit))+R.buffer;
const canvas=document.getElementById('canvas'),ctx=canvas.getContext('2d');
const imgs=new Map();let frame={nodes:[],edges:[]},W,H,sid=null,ws=null,cam={x:0,y:0,zoom:1};
function css(v){return getComputedStyle(document.documentElement).getPropertyValue(v).trim()}
function resize(){W=canvas.width=window.innerWidth;H=canvas.height=window.innerHeight;draw()}
function toScreen(x,y){return[(x-cam.x)*cam.zoom+W/2,(y-cam.y)*cam.zoom+H/2]}
function toWorld(sx,sy){return[(sx-W/2)/cam.zoom+cam.x,(sy-H/2)/cam.zoom+cam.y]}
function img(n){if(!n.image)return null;let i=imgs.get(n.image);if(!i){i=new Image();i.src=n.image;imgs.set(n.image,i)}return i}
function draw(){
  ctx.clearRect(0,0,W,H);const by=new Map(frame.nodes.map(n=>[n.id,n]));
  ctx.strokeStyle=css('--edge');ctx.lineWidth=1;
  for(const e of frame.edges){const a=by.get(e.source),b=by.get(e.target);if(!a||!b)continue;
    const[ax,ay]=toScreen(a.x,a.y),[bx,by2]=toScreen(b.x,b.y);ctx.beginPath();ctx.moveTo(ax,ay);ctx.lineTo(bx,by2);ctx.stroke()}
  for(const n of frame.nodes){const[sx,sy]=toScreen(n.x,n.y),r=paintR(n)*cam.zoom,i=img(n);
    ctx.save();ctx.beginPath();ctx.arc(sx,sy,r,0,Math.PI*2);ctx.clip();
    if(i&&i.complete&&i.naturalWidth){ctx.drawImage(i,sx-r,sy-r,r*2,r*2)}else{ctx.fillStyle=css('--accent');ctx.fill()}
    ctx.restore();if(n.focal){ctx.beginPath();ctx.arc(sx,sy,r,0,Math.PI*2);ctx.strokeStyle=css('--accent');ctx.lineWidth=3;ctx.stroke()}}
}
function hit(sx,sy){const[wx,wy]=toWorld(sx,sy);
  for(let i=frame.nodes.length-1;i>=0;i--){const n=frame.nodes[i],dx=n.x-wx,dy=n.y-wy,r=hitR(n);if(dx*dx+dy*dy<r*r)return n}return null}
function status(t){document.getElementById('status').textContent=t}
function notice(t){const el=document.getElementById('notice');el.textContent=t;el.style.display='block';setTimeout(()=>el.style.display='none',5000)}
function showShared(s){const el=document.getElementById('details');el.textContent='';
  const h=document.createElement('h3');h.textContent=s.focal.name+' & '+s.other.name;el.appendChild(h);
  const ul=document.createElement('ul');for(const m of s.movies){const li=document.createElement('li'),a=document.createElement('a');
    a.href='https://www.themoviedb.org/movie/'+m.id;a.target='_blank';a.textContent=m.title+(m.release_date?' ('+m.release_date.slice(0,4)+')':'');li.appendChild(a);ul.appendChild(li)}
  el.appendChild(ul);el.style.display='block'}
async function session(){const r=await fetch('/api/sessions',{method:'POST'});sid=(await r.json()).id;
  ws=new WebSocket((location.protocol==='https:'?'wss://':'ws://')+location.host+'/ws/'+sid);
  ws.onmessage=ev=>{const m=JSON.parse(ev.data);
    if(m.type==='frame'){frame=m.data;draw()}
    else if(m.type==='update'){const u=m.data.update;document.getElementById('from').value=u.range.min;document.getElementById('to').value=u.range.max;
      document.getElementById('from').min=document.getElementById('to').min=u.bounds.min;document.getElementById('from').max=document.getElementById('to').max=u.bounds.max;
      status(u.focal.name+': '+u.colleagues.length+' co-stars')}
    else if(m.type==='layout'){if(m.data.kind==='started')status('arranging...')}
    else if(m.type==='notice'){notice(m.data.notice.message)}
    else if(m.type==='shared'){showShared(m.data.shared)}}}
let timer=null;
document.getElementById('q').addEventListener('input',e=>{clearTimeout(timer);const q=e.target.value;timer=setTimeout(async()=>{
  const res=document.getElementById('results');res.textContent='';if(q.length<3)return;
  const r=await fetch('/api/search?q='+encodeURIComponent(q));const d=await r.json();
  for(const a of (d.results||[]).slice(0,8)){const div=document.createElement('div');div.textContent=a.name;
    div.onclick=()=>{res.textContent='';ws.send(JSON.stringify({type:'select',actor_id:a.id}));status('loading '+a.name+'...')};res.appendChild(div)}},250)});
for(const id of ['from','to'])document.getElementById(id).addEventListener('change',()=>{
  const min=+document.getElementById('from').value,max=+document.getElementById('to').value;if(min&&max&&min<=max)ws.send(JSON.stringify({type:'range',min,max}))});
canvas.addEventListener('click',e=>{const n=hit(e.clientX,e.clientY);if(n&&ws)ws.send(JSON.stringify({type:'activate',node_id:n.id}))});
canvas.addEventListener('wheel',e=>{e.preventDefault();cam.zoom=Math.max(0.2,Math.min(5,cam.zoom*(e.deltaY>0?0.9:1.1)));draw()},{passive:false});
window.addEventListener('resize',resize);resize();session();
</script>
</body>
</html>`

package graphics

// GLSL sources for the built-in programs. Array sizes match limits.go.

const ForwardVert = `#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aUV;
layout(location = 3) in vec4 aJoints;
layout(location = 4) in vec4 aWeights;
layout(location = 5) in mat4 aInstanceModel;
layout(location = 9) in vec4 aInstanceTint;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;
uniform vec4 tint;
uniform bool isInstanced;
uniform bool isSkinned;
uniform mat4 bones[100];

out vec3 vWorldPos;
out vec3 vNormal;
out vec2 vUV;
out vec4 vTint;

void main() {
	mat4 m = isInstanced ? aInstanceModel : model;
	vec4 pos = vec4(aPos, 1.0);
	vec4 nrm = vec4(aNormal, 0.0);
	if (isSkinned) {
		mat4 skin = aWeights.x * bones[int(aJoints.x)]
			+ aWeights.y * bones[int(aJoints.y)]
			+ aWeights.z * bones[int(aJoints.z)]
			+ aWeights.w * bones[int(aJoints.w)];
		pos = skin * pos;
		nrm = skin * nrm;
	}
	vec4 world = m * pos;
	vWorldPos = world.xyz;
	vNormal = mat3(transpose(inverse(m))) * nrm.xyz;
	vUV = aUV;
	vTint = isInstanced ? aInstanceTint : tint;
	gl_Position = projection * view * world;
}
`

const ForwardFrag = `#version 410 core
#define MAX_DIR 4
#define MAX_POINT 8
#define MAX_SPOT 8
#define MAX_DIR_SHADOWS 2
#define MAX_SPOT_SHADOWS 4
#define MAX_POINT_SHADOWS 4
#define PI 3.14159265

struct Light {
	vec3 direction;
	vec3 position;
	vec3 color;
	float intensity;
	float constant;
	float linear;
	float quadratic;
	float innerCutoff;
	float outerCutoff;
	int shadowIndex;
};

struct Material {
	vec3 ambient;
	vec3 diffuse;
	vec3 specular;
	float shininess;
	vec3 albedo;
	float metallic;
	float roughness;
	float ao;
};

in vec3 vWorldPos;
in vec3 vNormal;
in vec2 vUV;
in vec4 vTint;

uniform vec3 viewPos;
uniform int materialType;
uniform Material material;
uniform sampler2D diffuseMap;

uniform int numDirLights;
uniform int numPointLights;
uniform int numSpotLights;
uniform Light dirLights[MAX_DIR];
uniform Light pointLights[MAX_POINT];
uniform Light spotLights[MAX_SPOT];

uniform bool shadowsEnabled;
uniform sampler2D dirShadowMaps[MAX_DIR_SHADOWS];
uniform mat4 dirLightSpace[MAX_DIR_SHADOWS];
uniform sampler2D spotShadowMaps[MAX_SPOT_SHADOWS];
uniform mat4 spotLightSpace[MAX_SPOT_SHADOWS];
uniform samplerCube pointShadowMaps[MAX_POINT_SHADOWS];
uniform vec3 pointShadowPos[MAX_POINT_SHADOWS];
uniform float pointShadowFar;

out vec4 FragColor;

float projShadow(sampler2D map, mat4 lightSpace, vec3 n, vec3 l) {
	vec4 ls = lightSpace * vec4(vWorldPos, 1.0);
	vec3 p = ls.xyz / ls.w * 0.5 + 0.5;
	if (p.z > 1.0) return 0.0;
	float bias = max(0.004 * (1.0 - dot(n, l)), 0.0008);
	float shadow = 0.0;
	vec2 ts = 1.0 / vec2(textureSize(map, 0));
	for (int x = -1; x <= 1; ++x)
		for (int y = -1; y <= 1; ++y)
			shadow += p.z - bias > texture(map, p.xy + vec2(x, y) * ts).r ? 1.0 : 0.0;
	return shadow / 9.0;
}

float dirShadow(int idx, vec3 n, vec3 l) {
	for (int i = 0; i < MAX_DIR_SHADOWS; ++i)
		if (i == idx) return projShadow(dirShadowMaps[i], dirLightSpace[i], n, l);
	return 0.0;
}

float spotShadow(int idx, vec3 n, vec3 l) {
	for (int i = 0; i < MAX_SPOT_SHADOWS; ++i)
		if (i == idx) return projShadow(spotShadowMaps[i], spotLightSpace[i], n, l);
	return 0.0;
}

float pointShadow(int idx) {
	for (int i = 0; i < MAX_POINT_SHADOWS; ++i) {
		if (i != idx) continue;
		vec3 d = vWorldPos - pointShadowPos[i];
		float closest = texture(pointShadowMaps[i], d).r * pointShadowFar;
		return length(d) - 0.05 > closest ? 1.0 : 0.0;
	}
	return 0.0;
}

vec3 baseColor() {
	vec3 c = materialType == 1 ? material.albedo : material.diffuse;
	return c * texture(diffuseMap, vUV).rgb * vTint.rgb;
}

vec3 phong(vec3 n, vec3 v, vec3 l, vec3 radiance, vec3 albedo) {
	float diff = max(dot(n, l), 0.0);
	vec3 h = normalize(l + v);
	float spec = pow(max(dot(n, h), 0.0), max(material.shininess, 1.0));
	return radiance * (diff * albedo + spec * material.specular);
}

vec3 pbr(vec3 n, vec3 v, vec3 l, vec3 radiance, vec3 albedo) {
	vec3 h = normalize(l + v);
	float a = material.roughness * material.roughness;
	float a2 = a * a;
	float ndh = max(dot(n, h), 0.0);
	float ndv = max(dot(n, v), 0.0);
	float ndl = max(dot(n, l), 0.0);
	float denom = ndh * ndh * (a2 - 1.0) + 1.0;
	float D = a2 / (PI * denom * denom);
	float k = (material.roughness + 1.0) * (material.roughness + 1.0) / 8.0;
	float G = (ndv / (ndv * (1.0 - k) + k)) * (ndl / (ndl * (1.0 - k) + k));
	vec3 F0 = mix(vec3(0.04), albedo, material.metallic);
	vec3 F = F0 + (1.0 - F0) * pow(1.0 - max(dot(h, v), 0.0), 5.0);
	vec3 spec = D * G * F / max(4.0 * ndv * ndl, 0.001);
	vec3 kd = (vec3(1.0) - F) * (1.0 - material.metallic);
	return (kd * albedo / PI + spec) * radiance * ndl;
}

vec3 shade(vec3 n, vec3 v, vec3 l, vec3 radiance, vec3 albedo) {
	return materialType == 1 ? pbr(n, v, l, radiance, albedo) : phong(n, v, l, radiance, albedo);
}

float attenuation(Light li, float d) {
	return 1.0 / (li.constant + li.linear * d + li.quadratic * d * d);
}

void main() {
	vec3 n = normalize(vNormal);
	vec3 v = normalize(viewPos - vWorldPos);
	vec3 albedo = baseColor();
	vec3 color = materialType == 1 ? albedo * 0.03 * material.ao : material.ambient * albedo;

	for (int i = 0; i < numDirLights; ++i) {
		vec3 l = normalize(-dirLights[i].direction);
		float s = 0.0;
		if (shadowsEnabled && dirLights[i].shadowIndex >= 0) s = dirShadow(dirLights[i].shadowIndex, n, l);
		color += (1.0 - s) * shade(n, v, l, dirLights[i].color * dirLights[i].intensity, albedo);
	}
	for (int i = 0; i < numPointLights; ++i) {
		vec3 d = pointLights[i].position - vWorldPos;
		vec3 l = normalize(d);
		float s = 0.0;
		if (shadowsEnabled && pointLights[i].shadowIndex >= 0) s = pointShadow(pointLights[i].shadowIndex);
		vec3 radiance = pointLights[i].color * pointLights[i].intensity * attenuation(pointLights[i], length(d));
		color += (1.0 - s) * shade(n, v, l, radiance, albedo);
	}
	for (int i = 0; i < numSpotLights; ++i) {
		vec3 d = spotLights[i].position - vWorldPos;
		vec3 l = normalize(d);
		float theta = dot(l, normalize(-spotLights[i].direction));
		float eps = max(spotLights[i].innerCutoff - spotLights[i].outerCutoff, 0.0001);
		float cone = clamp((theta - spotLights[i].outerCutoff) / eps, 0.0, 1.0);
		float s = 0.0;
		if (shadowsEnabled && spotLights[i].shadowIndex >= 0) s = spotShadow(spotLights[i].shadowIndex, n, l);
		vec3 radiance = spotLights[i].color * spotLights[i].intensity * attenuation(spotLights[i], length(d)) * cone;
		color += (1.0 - s) * shade(n, v, l, radiance, albedo);
	}
	FragColor = vec4(color, vTint.a);
}
`

const DepthVert = `#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 3) in vec4 aJoints;
layout(location = 4) in vec4 aWeights;

uniform mat4 model;
uniform mat4 lightSpace;
uniform bool isSkinned;
uniform mat4 bones[100];

void main() {
	vec4 pos = vec4(aPos, 1.0);
	if (isSkinned) {
		mat4 skin = aWeights.x * bones[int(aJoints.x)]
			+ aWeights.y * bones[int(aJoints.y)]
			+ aWeights.z * bones[int(aJoints.z)]
			+ aWeights.w * bones[int(aJoints.w)];
		pos = skin * pos;
	}
	gl_Position = lightSpace * model * pos;
}
`

const DepthFrag = `#version 410 core
void main() {}
`

const PointDepthVert = `#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 3) in vec4 aJoints;
layout(location = 4) in vec4 aWeights;

uniform mat4 model;
uniform bool isSkinned;
uniform mat4 bones[100];

void main() {
	vec4 pos = vec4(aPos, 1.0);
	if (isSkinned) {
		mat4 skin = aWeights.x * bones[int(aJoints.x)]
			+ aWeights.y * bones[int(aJoints.y)]
			+ aWeights.z * bones[int(aJoints.z)]
			+ aWeights.w * bones[int(aJoints.w)];
		pos = skin * pos;
	}
	gl_Position = model * pos;
}
`

const PointDepthGeom = `#version 410 core
layout(triangles) in;
layout(triangle_strip, max_vertices = 18) out;

uniform mat4 shadowMatrices[6];
out vec4 gFragPos;

void main() {
	for (int face = 0; face < 6; ++face) {
		gl_Layer = face;
		for (int i = 0; i < 3; ++i) {
			gFragPos = gl_in[i].gl_Position;
			gl_Position = shadowMatrices[face] * gFragPos;
			EmitVertex();
		}
		EndPrimitive();
	}
}
`

const PointDepthFrag = `#version 410 core
in vec4 gFragPos;
uniform vec3 lightPos;
uniform float farPlane;

void main() {
	gl_FragDepth = length(gFragPos.xyz - lightPos) / farPlane;
}
`

const FullscreenVert = `#version 410 core
out vec2 vUV;

void main() {
	vec2 p = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
	vUV = p;
	gl_Position = vec4(p * 2.0 - 1.0, 0.0, 1.0);
}
`

const BlitFrag = `#version 410 core
in vec2 vUV;
uniform sampler2D source;
out vec4 FragColor;

void main() {
	FragColor = texture(source, vUV);
}
`

const TAAFrag = `#version 410 core
in vec2 vUV;
uniform sampler2D currentColor;
uniform sampler2D historyColor;
uniform sampler2D depthTexture;
uniform mat4 prevViewProj;
uniform mat4 invViewProj;
uniform vec2 jitter;
uniform vec2 inverseScreenSize;
uniform float blend;
uniform bool historyValid;
out vec4 FragColor;

void main() {
	vec2 uv = vUV - jitter * inverseScreenSize;
	vec3 current = texture(currentColor, uv).rgb;
	if (!historyValid) {
		FragColor = vec4(current, 1.0);
		return;
	}

	float depth = texture(depthTexture, vUV).r;
	vec4 ndc = vec4(vUV * 2.0 - 1.0, depth * 2.0 - 1.0, 1.0);
	vec4 world = invViewProj * ndc;
	world /= world.w;
	vec4 prev = prevViewProj * world;
	vec2 prevUV = prev.xy / prev.w * 0.5 + 0.5;

	vec3 history = texture(historyColor, prevUV).rgb;

	// Clamp history to the current 3x3 neighborhood
	vec3 lo = current;
	vec3 hi = current;
	for (int x = -1; x <= 1; ++x) {
		for (int y = -1; y <= 1; ++y) {
			vec3 c = texture(currentColor, uv + vec2(x, y) * inverseScreenSize).rgb;
			lo = min(lo, c);
			hi = max(hi, c);
		}
	}
	history = clamp(history, lo, hi);

	float a = blend;
	if (any(lessThan(prevUV, vec2(0.0))) || any(greaterThan(prevUV, vec2(1.0)))) a = 1.0;
	FragColor = vec4(mix(history, current, a), 1.0);
}
`

const FXAAFrag = `#version 410 core
in vec2 vUV;
uniform sampler2D source;
uniform vec2 inverseScreenSize;
out vec4 FragColor;

const float SPAN_MAX = 8.0;
const float REDUCE_MUL = 1.0 / 8.0;
const float REDUCE_MIN = 1.0 / 128.0;

float luma(vec3 c) { return dot(c, vec3(0.299, 0.587, 0.114)); }

void main() {
	vec2 px = inverseScreenSize;
	float nw = luma(texture(source, vUV + vec2(-1.0, -1.0) * px).rgb);
	float ne = luma(texture(source, vUV + vec2(1.0, -1.0) * px).rgb);
	float sw = luma(texture(source, vUV + vec2(-1.0, 1.0) * px).rgb);
	float se = luma(texture(source, vUV + vec2(1.0, 1.0) * px).rgb);
	vec3 m = texture(source, vUV).rgb;
	float lm = luma(m);

	float lmin = min(lm, min(min(nw, ne), min(sw, se)));
	float lmax = max(lm, max(max(nw, ne), max(sw, se)));

	vec2 dir = vec2(-((nw + ne) - (sw + se)), (nw + sw) - (ne + se));
	float reduce = max((nw + ne + sw + se) * 0.25 * REDUCE_MUL, REDUCE_MIN);
	float rcp = 1.0 / (min(abs(dir.x), abs(dir.y)) + reduce);
	dir = clamp(dir * rcp, vec2(-SPAN_MAX), vec2(SPAN_MAX)) * px;

	vec3 a = 0.5 * (texture(source, vUV + dir * (1.0 / 3.0 - 0.5)).rgb +
		texture(source, vUV + dir * (2.0 / 3.0 - 0.5)).rgb);
	vec3 b = a * 0.5 + 0.25 * (texture(source, vUV + dir * -0.5).rgb +
		texture(source, vUV + dir * 0.5).rgb);
	float lb = luma(b);
	FragColor = vec4((lb < lmin || lb > lmax) ? a : b, 1.0);
}
`

const TonemapFrag = `#version 410 core
in vec2 vUV;
uniform sampler2D source;
uniform float exposure;
out vec4 FragColor;

void main() {
	vec3 c = texture(source, vUV).rgb * exposure;
	c = (c * (2.51 * c + 0.03)) / (c * (2.43 * c + 0.59) + 0.14);
	FragColor = vec4(pow(clamp(c, 0.0, 1.0), vec3(1.0 / 2.2)), 1.0);
}
`
